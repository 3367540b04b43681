package contact

import (
	"net/mail"
	"strings"
)

// Service options offered by the contact form's select box.
const (
	ServiceWebDesign  = "Web Design"
	ServiceAutomation = "Automation Workflow"
	ServiceAgents     = "Agents Creation"
	ServiceOther      = "Other"
)

// ServiceOptions lists the accepted values of FormData.Service in display order.
var ServiceOptions = []string{ServiceWebDesign, ServiceAutomation, ServiceAgents, ServiceOther}

// FormData is the payload relayed to the form endpoint.
type FormData struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Defaults returns the blank form shown on first render and after a successful send.
func Defaults() FormData {
	return FormData{Service: ServiceWebDesign}
}

// State is a snapshot of a visitor's contact form.
type State struct {
	Data         FormData `json:"data"`
	Submitting   bool     `json:"submitting"`
	Submitted    bool     `json:"submitted"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// MissingFields reports the required fields that are empty or malformed.
func (f FormData) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if !validEmail(f.Email) {
		missing = append(missing, "email")
	}
	if !validService(f.Service) {
		missing = append(missing, "service")
	}
	if strings.TrimSpace(f.Message) == "" {
		missing = append(missing, "message")
	}
	return missing
}

func validEmail(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	addr, err := mail.ParseAddress(trimmed)
	return err == nil && addr.Address == trimmed
}

func validService(s string) bool {
	for _, opt := range ServiceOptions {
		if s == opt {
			return true
		}
	}
	return false
}
