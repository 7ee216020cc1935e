package model

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WebsiteAnalysis is the structured extraction from a fetched lead page.
// It is produced once per contact attempt and consumed by template
// customization; it is never persisted.
type WebsiteAnalysis struct {
	Summary          string   `json:"summary"`
	BusinessType     string   `json:"business_type"`
	BusinessName     string   `json:"business_name"`
	KeyFeatures      []string `json:"key_features"`
	CommunityAspects []string `json:"community_aspects"`
	ContactPerson    string   `json:"contact_person,omitempty"`
}

var titleCaser = cases.Title(language.English)

// BusinessNameFromURL derives a display name from a website URL:
// the first domain label with hyphens replaced by spaces, title-cased.
// "https://the-grind-house.com/about" becomes "The Grind House".
func BusinessNameFromURL(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(NormalizeURL(rawURL)); err == nil && u.Host != "" {
		host = u.Host
	} else {
		// Fall back to manual splitting for unparseable input.
		host = strings.SplitN(strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://"), "/", 2)[0]
	}

	labels := strings.Split(host, ".")
	if len(labels) > 1 && labels[0] == "www" {
		labels = labels[1:]
	}
	if len(labels) == 0 || labels[0] == "" {
		return host
	}

	return titleCaser.String(strings.ReplaceAll(labels[0], "-", " "))
}

// FallbackAnalysis builds the default analysis used when the LLM stage
// fails or returns unparseable output.
func FallbackAnalysis(websiteURL string) WebsiteAnalysis {
	return WebsiteAnalysis{
		Summary:      "Could not analyze website",
		BusinessType: "unknown",
		BusinessName: BusinessNameFromURL(websiteURL),
	}
}
