package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewAppointmentNumber builds the human-readable appointment number:
// a fixed prefix, a second-resolution timestamp, and a random suffix so
// that concurrent bookings within the same second cannot collide.
// Example: APT-20250114103000-9f86d0
func NewAppointmentNumber(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("APT-%s-%s", t.Format("20060102150405"), suffix)
}
