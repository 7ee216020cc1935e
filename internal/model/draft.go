package model

import (
	"regexp"
	"strings"
)

// EmailSections holds the LLM-drafted pieces of an outreach email.
// KeyPoints may carry inline emphasis markup that the renderer rewrites
// to inline styles.
type EmailSections struct {
	SafeName           string   `json:"safe_name"`
	SubjectLine        string   `json:"subject_line,omitempty"`
	CustomIntro        string   `json:"custom_intro"`
	CustomMainPitch    string   `json:"custom_main_pitch,omitempty"`
	KeyPoints          []string `json:"key_points"`
	CustomClosing      string   `json:"custom_closing"`
	SpecificReferences []string `json:"specific_references,omitempty"`
}

// EmailDraft is the rendered artifact handed to the mail dispatcher.
// Ownership is transient: composed once, dispatched once, then discarded.
type EmailDraft struct {
	Subject  string
	HTMLBody string
	TextBody string
	SafeName string
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

// SafeName converts a business name into a token safe for tracking links:
// lowercase, spaces collapsed to hyphens, everything else stripped.
func SafeName(businessName string) string {
	s := strings.ToLower(strings.TrimSpace(businessName))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeNameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "-")
}
