// Package assistant is the conversational front of the booking system. It
// grounds the model in the live catalog by rebuilding the system context
// from current clinics, doctors and services on every turn, keeps per-session
// history in Redis, and records every exchange in the interaction log.
package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/healthbot/clinic-scheduling/internal/catalog"
	"github.com/healthbot/clinic-scheduling/internal/llm"
)

// degradedReply is returned when the model is unreachable. The turn still
// gets logged so the audit trail has no gaps.
const degradedReply = "I apologize, but I'm having trouble processing your request right now. Please try again or contact our clinic directly."

// InteractionLogger records one chat turn for audit purposes.
type InteractionLogger interface {
	InsertInteraction(ctx context.Context, sessionID, userInput, aiResponse string) error
}

// Catalog is the subset of catalog reads the assistant grounds its context on.
type Catalog interface {
	ListClinics(ctx context.Context) ([]catalog.Clinic, error)
	ListDoctors(ctx context.Context) ([]catalog.Doctor, error)
	ListServices(ctx context.Context) ([]catalog.Service, error)
}

// Assistant handles one conversation turn at a time.
type Assistant struct {
	llm          llm.Client
	sessions     SessionStore
	catalog      Catalog
	interactions InteractionLogger
}

func New(client llm.Client, sessions SessionStore, cat Catalog, interactions InteractionLogger) *Assistant {
	return &Assistant{
		llm:          client,
		sessions:     sessions,
		catalog:      cat,
		interactions: interactions,
	}
}

// Reply is one assistant turn.
type Reply struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// Respond handles one user message: rebuild the catalog-grounded system
// context, run the model with session history, persist both turns, and log
// the interaction. A model failure degrades to a static reply instead of
// failing the request.
func (a *Assistant) Respond(ctx context.Context, sessionID, userMessage string) (*Reply, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, fmt.Errorf("assistant: empty message")
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = "default"
	}

	system, err := a.buildSystemContext(ctx)
	if err != nil {
		// A stale-free context is preferred but not required for a turn.
		log.Printf("assistant: building system context failed, using minimal context: %v", err)
		system = "You are a healthcare appointment scheduling assistant."
	}

	history, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		log.Printf("assistant: loading session %s failed, continuing without history: %v", sessionID, err)
		history = nil
	}

	reply := &Reply{SessionID: sessionID}
	text, err := a.llm.Complete(ctx, llm.Request{
		System:      system,
		History:     history,
		UserMessage: userMessage,
	})
	if err != nil {
		log.Printf("assistant: completion failed for session %s: %v", sessionID, err)
		reply.Message = degradedReply
		reply.Degraded = true
	} else {
		reply.Message = text
	}

	if err := a.sessions.Append(ctx, sessionID,
		llm.ChatMessage{Role: llm.RoleUser, Content: userMessage},
		llm.ChatMessage{Role: llm.RoleAssistant, Content: reply.Message},
	); err != nil {
		log.Printf("assistant: persisting history for session %s failed: %v", sessionID, err)
	}

	if a.interactions != nil {
		if err := a.interactions.InsertInteraction(ctx, sessionID, userMessage, reply.Message); err != nil {
			log.Printf("assistant: logging interaction for session %s failed: %v", sessionID, err)
		}
	}

	return reply, nil
}

// Reset discards a session's conversation history.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	return a.sessions.Reset(ctx, sessionID)
}

// buildSystemContext renders the live catalog into the system prompt so the
// model only ever offers clinics, doctors and services that exist right now.
func (a *Assistant) buildSystemContext(ctx context.Context) (string, error) {
	clinics, err := a.catalog.ListClinics(ctx)
	if err != nil {
		return "", fmt.Errorf("list clinics: %w", err)
	}
	doctors, err := a.catalog.ListDoctors(ctx)
	if err != nil {
		return "", fmt.Errorf("list doctors: %w", err)
	}
	services, err := a.catalog.ListServices(ctx)
	if err != nil {
		return "", fmt.Errorf("list services: %w", err)
	}

	clinicNames := make(map[string]string, len(clinics))
	for _, c := range clinics {
		clinicNames[c.ID.String()] = c.Name
	}

	var b strings.Builder
	b.WriteString("You are HealthBot AI, an intelligent healthcare appointment scheduling assistant for a network of clinics.\n\n")

	b.WriteString("CURRENT HEALTHCARE FACILITIES:\n")
	for _, c := range clinics {
		fmt.Fprintf(&b, "- %s\n  Address: %s, %s, %s\n  Phone: %s | Hours: %s\n",
			c.Name, c.Address, c.City, c.State, c.Phone, c.OperatingHours)
	}

	b.WriteString("\nAVAILABLE DOCTORS:\n")
	for _, d := range doctors {
		fmt.Fprintf(&b, "- %s - %s\n  Working hours: %s\n  Available days: %s\n  Contact: %s | Clinic: %s\n",
			d.Name, d.Specialty, d.WorkingHoursDisplay, strings.Join(d.AvailableDays, ", "),
			d.Phone, clinicNames[d.ClinicID.String()])
	}

	b.WriteString("\nAVAILABLE SERVICES:\n")
	for _, s := range services {
		fmt.Fprintf(&b, "- %s - %s - %.2f (%d mins)\n  %s\n  Offered at: %s\n",
			s.Name, s.Department, s.Price, s.DurationMinutes, s.Description,
			clinicNames[s.ClinicID.String()])
	}

	b.WriteString(`
YOUR RESPONSIBILITIES:
1. Engage naturally, understand patient concerns, ask clarifying questions.
2. Analyze described symptoms and recommend appropriate healthcare services.
3. Guide patients through the complete booking process.
4. Only offer clinics, doctors and services listed above.
5. Show empathy and maintain professionalism.

CRITICAL GUIDELINES:
- NEVER provide a medical diagnosis; only suggest appropriate healthcare services.
- For urgent symptoms (chest pain, severe bleeding, difficulty breathing), immediately recommend emergency care.
- Confirm all appointment details before booking.
- Maintain patient privacy and confidentiality.

Always greet warmly and ask how you can help with the patient's healthcare needs today.`)

	return b.String(), nil
}
