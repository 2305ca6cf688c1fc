// Package summary produces the patient summary attached to an appointment
// for the attending doctor's review. Generation is delegated to an LLM;
// when the call fails or times out, a deterministic template built from the
// structured fields takes its place so a booking never depends on the
// provider being up.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthbot/clinic-scheduling/internal/llm"
)

// PatientPrompt carries the structured fields the summary is built from.
type PatientPrompt struct {
	PatientName      string
	PatientAge       int
	PatientGender    string
	PatientPhone     string
	ServiceName      string
	DoctorName       string
	DoctorSpecialty  string
	Complaint        string
	Symptoms         string
	SymptomsDuration string
	PainLevel        *int
	Urgency          string
	MedicalHistory   string
	Conversation     []string // recent conversation excerpt, newest last
}

// Insights are the short derived fields stored alongside the summary for
// the doctor's pre-visit review.
type Insights struct {
	FocusAreas            string
	PreliminaryAssessment string
	SuggestedQuestions    string
}

type Generator interface {
	Generate(ctx context.Context, p PatientPrompt) (string, error)
	GenerateInsights(ctx context.Context, p PatientPrompt) (Insights, error)
}

// LLMGenerator generates summaries through an llm.Client.
type LLMGenerator struct {
	client llm.Client
}

func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

func (g *LLMGenerator) Generate(ctx context.Context, p PatientPrompt) (string, error) {
	text, err := g.client.Complete(ctx, llm.Request{
		UserMessage: BuildPrompt(p),
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("generate patient summary: %w", err)
	}
	return text, nil
}

func (g *LLMGenerator) GenerateInsights(ctx context.Context, p PatientPrompt) (Insights, error) {
	text, err := g.client.Complete(ctx, llm.Request{
		UserMessage: BuildInsightsPrompt(p),
		MaxTokens:   256,
	})
	if err != nil {
		return Insights{}, fmt.Errorf("generate patient insights: %w", err)
	}
	return ParseInsights(text), nil
}

// BuildPrompt assembles the summary request sent to the model.
func BuildPrompt(p PatientPrompt) string {
	var b strings.Builder

	b.WriteString("Generate a concise patient summary (around 200 words) for the attending doctor based on the appointment booking conversation.\n\n")
	b.WriteString("PATIENT INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orNA(p.PatientName))
	if p.PatientAge > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", p.PatientAge)
	}
	if p.PatientGender != "" {
		fmt.Fprintf(&b, "- Gender: %s\n", p.PatientGender)
	}
	fmt.Fprintf(&b, "- Service: %s\n", orNA(p.ServiceName))
	fmt.Fprintf(&b, "- Doctor: %s (%s)\n", orNA(p.DoctorName), orNA(p.DoctorSpecialty))
	fmt.Fprintf(&b, "- Complaint: %s\n", orNA(p.Complaint))
	fmt.Fprintf(&b, "- Symptoms: %s\n", orNA(p.Symptoms))
	if p.SymptomsDuration != "" {
		fmt.Fprintf(&b, "- Symptom duration: %s\n", p.SymptomsDuration)
	}
	if p.PainLevel != nil {
		fmt.Fprintf(&b, "- Pain level: %d/10\n", *p.PainLevel)
	}
	fmt.Fprintf(&b, "- Urgency: %s\n", orDefault(p.Urgency, "normal"))
	fmt.Fprintf(&b, "- Medical history: %s\n", orDefault(p.MedicalHistory, "None reported"))

	if len(p.Conversation) > 0 {
		b.WriteString("\nCONVERSATION EXCERPT:\n")
		b.WriteString(strings.Join(p.Conversation, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nCover: the primary concern, symptom details and severity, relevant history, recommended focus areas for the examination, and any red flags. Format as a professional medical summary.")

	return b.String()
}

// Fallback is the deterministic template used when generation fails. It is
// never empty as long as the booking itself was valid.
func Fallback(p PatientPrompt) string {
	name := orDefault(p.PatientName, "Unknown patient")
	service := orDefault(p.ServiceName, "consultation")
	complaint := orDefault(p.Complaint, "general consultation")

	return fmt.Sprintf(
		"%s is scheduled for %s. Complaint: %s. Urgency: %s. Please conduct a thorough examination as per standard protocol.",
		name, service, complaint, orDefault(p.Urgency, "normal"),
	)
}

// BuildInsightsPrompt asks the model for the three labeled insight
// sections ParseInsights knows how to read back.
func BuildInsightsPrompt(p PatientPrompt) string {
	var b strings.Builder

	b.WriteString("Based on the patient information below, provide:\n\n")
	b.WriteString("1. RECOMMENDED FOCUS AREAS (comma-separated list):\n")
	b.WriteString("2. PRELIMINARY ASSESSMENT (one sentence):\n")
	b.WriteString("3. SUGGESTED QUESTIONS FOR DOCTOR (3-4 questions):\n\n")
	b.WriteString("PATIENT INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orNA(p.PatientName))
	fmt.Fprintf(&b, "- Service: %s\n", orNA(p.ServiceName))
	fmt.Fprintf(&b, "- Complaint: %s\n", orNA(p.Complaint))
	fmt.Fprintf(&b, "- Symptoms: %s\n", orNA(p.Symptoms))
	fmt.Fprintf(&b, "- Urgency: %s\n", orDefault(p.Urgency, "normal"))
	fmt.Fprintf(&b, "- Medical history: %s\n", orDefault(p.MedicalHistory, "None reported"))

	return b.String()
}

// ParseInsights reads the labeled sections out of a model reply. Sections
// the model omitted or mangled keep a generic default, so the result is
// always usable.
func ParseInsights(text string) Insights {
	ins := Insights{
		FocusAreas:            "General examination, symptom assessment",
		PreliminaryAssessment: "Patient requires thorough examination based on reported symptoms.",
		SuggestedQuestions:    "1. When did symptoms first appear? 2. Any triggers? 3. Previous similar episodes? 4. Current medications?",
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(upper, "FOCUS AREAS"):
			if v := afterColon(line); v != "" {
				ins.FocusAreas = v
			}
		case strings.Contains(upper, "PRELIMINARY"):
			if v := afterColon(line); v != "" {
				ins.PreliminaryAssessment = v
			}
		case strings.Contains(upper, "QUESTIONS"):
			rest := strings.Join(lines[i:], "\n")
			rest = strings.TrimSpace(strings.Replace(rest, "SUGGESTED QUESTIONS FOR DOCTOR:", "", 1))
			if rest != "" {
				ins.SuggestedQuestions = rest
			}
			return ins
		}
	}

	return ins
}

// FallbackInsights is the deterministic counterpart of Fallback.
func FallbackInsights() Insights {
	return Insights{
		FocusAreas:            "General examination, symptom assessment",
		PreliminaryAssessment: "Standard consultation required based on patient request.",
		SuggestedQuestions:    "1. Please describe your symptoms in detail. 2. When did this start? 3. Any previous medical history? 4. Current medications?",
	}
}

func afterColon(line string) string {
	_, v, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
