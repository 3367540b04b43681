package ai

import (
	"fmt"
	"strings"

	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
)

// PromptRules are the behavioural constraints appended to every system instruction.
var PromptRules = []string{
	"If asked about pricing, suggest booking a consultation for a tailored quote.",
	"Keep responses concise (under 100 words) unless a detailed explanation is requested.",
}

// BuildSystemInstruction renders the fixed system prompt for the agency's assistant.
func BuildSystemInstruction(p agency.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %q, the intelligent virtual assistant for %s.\n", p.AssistantName, p.Name)
	b.WriteString("Your goal is to help potential clients understand our services and encourage them to book a consultation.\n\n")

	b.WriteString("Our Services:\n")
	for i, svc := range p.Services {
		summary := svc.Description
		if len(svc.Highlights) > 0 {
			summary = strings.Join(svc.Highlights, " ")
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, svc.Title, summary)
	}

	b.WriteString("\nContact Info:\n")
	writeChannel(&b, "Phone", p.Contact.Phone)
	writeChannel(&b, "Email", p.Contact.Email)
	writeChannel(&b, "WhatsApp", p.Contact.WhatsApp)
	writeChannel(&b, "Facebook", p.Contact.Facebook)

	if len(p.Tone) > 0 {
		fmt.Fprintf(&b, "\nTone: %s.\n", strings.Join(p.Tone, ", "))
	}
	for _, rule := range PromptRules {
		b.WriteString(rule)
		b.WriteString("\n")
	}
	return b.String()
}

func writeChannel(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
