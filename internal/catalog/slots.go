package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const clockLayout = "15:04:05"

// DefaultSlotWidth is the width of every generated slot.
const DefaultSlotWidth = 30 * time.Minute

var dayNumbers = map[string]int{
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
	"Sunday":    7,
}

// DayNumber maps a weekday name to the 1=Monday..7=Sunday numbering used by
// the slot grid. Returns 0 for an unknown name.
func DayNumber(name string) int {
	return dayNumbers[name]
}

// BuildWeeklySlots generates the recurring weekly grid for one doctor:
// fixed-width, contiguous, non-overlapping slots fully contained within the
// doctor's working hours, one run per available day. A trailing remainder
// shorter than the width is not emitted.
func BuildWeeklySlots(d Doctor, width time.Duration) ([]Slot, error) {
	if width <= 0 {
		width = DefaultSlotWidth
	}

	start, err := time.Parse(clockLayout, d.WorkingHoursStart)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: parse working hours start %q: %w", d.ID, d.WorkingHoursStart, err)
	}
	end, err := time.Parse(clockLayout, d.WorkingHoursEnd)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: parse working hours end %q: %w", d.ID, d.WorkingHoursEnd, err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("doctor %s: working hours start %q not before end %q", d.ID, d.WorkingHoursStart, d.WorkingHoursEnd)
	}

	var slots []Slot
	for _, dayName := range d.AvailableDays {
		day := DayNumber(dayName)
		if day == 0 {
			return nil, fmt.Errorf("doctor %s: unknown weekday %q", d.ID, dayName)
		}

		for cur := start; !cur.Add(width).After(end); cur = cur.Add(width) {
			slots = append(slots, Slot{
				ID:          uuid.New(),
				DoctorID:    d.ID,
				DayOfWeek:   day,
				StartTime:   cur.Format(clockLayout),
				EndTime:     cur.Add(width).Format(clockLayout),
				IsAvailable: true,
				SlotType:    "regular",
			})
		}
	}

	return slots, nil
}
