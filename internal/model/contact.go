// Package model defines the core domain types for the outreach pipeline.
package model

import (
	"strings"

	"github.com/badoux/checkmail"
)

// Contact is a single lead to be emailed.
type Contact struct {
	Organization string `json:"organization,omitempty"`
	Website      string `json:"website"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email"`
	Notes        string `json:"notes,omitempty"`
	Contacted    bool   `json:"contacted"`
}

// ValidEmail reports whether the contact's email passes a structural
// format check. No DNS or mailbox verification is attempted.
func (c Contact) ValidEmail() bool {
	return ValidEmail(c.Email)
}

// ValidEmail reports whether addr is a structurally valid email address.
func ValidEmail(addr string) bool {
	if strings.TrimSpace(addr) == "" {
		return false
	}
	return checkmail.ValidateFormat(addr) == nil
}

// NormalizeURL prefixes https:// when the URL carries no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}
