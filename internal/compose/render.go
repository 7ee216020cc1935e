package compose

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

const paragraphStyle = `style="margin: 0 0 1em 0;"`

// render assembles the final draft from the sections. Rendering never
// fails: every slot has a template-derived value to fall back on, so the
// draft always carries a non-empty subject and body.
func (c *Composer) render(templateKey string, sections model.EmailSections, analysis model.WebsiteAnalysis, website string) *model.EmailDraft {
	tmpl := c.registry.Get(templateKey)
	product := c.registry.Product

	subject := strings.TrimSpace(sections.SubjectLine)
	if subject == "" {
		subject = tmpl.SubjectFor(analysis.BusinessName)
	}

	safeName := sections.SafeName
	if safeName == "" {
		safeName = model.SafeName(analysis.BusinessName)
	}

	intro := sections.CustomIntro
	if strings.TrimSpace(intro) == "" {
		intro = fmt.Sprintf("I came across %s and was impressed by what you're building.", analysis.BusinessName)
	}
	mainPitch := sections.CustomMainPitch
	if strings.TrimSpace(mainPitch) == "" {
		mainPitch = tmpl.MainPitch
	}
	closing := sections.CustomClosing
	if strings.TrimSpace(closing) == "" {
		closing = "Would love to hear what you think. Happy to set up a quick demo if you're curious."
	}

	keyPoints := sections.KeyPoints
	if len(keyPoints) == 0 {
		keyPoints = fallbackKeyPoints()
	}
	var items strings.Builder
	for _, kp := range keyPoints {
		items.WriteString(fmt.Sprintf("<li style='margin-bottom: 0.5em;'>%s</li>\n", restyleHighlights(kp)))
	}

	var b strings.Builder
	b.WriteString(`<div style="font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #000000;">` + "\n")
	b.WriteString(fmt.Sprintf("<p %s>Hello!!</p>\n", paragraphStyle))
	b.WriteString(ensureParagraph(restyleHighlights(intro)) + "\n")
	b.WriteString(restyleHighlights(mainPitch) + "\n")
	b.WriteString(fmt.Sprintf("<ul style='margin: 0 0 1em 0;'>\n%s</ul>\n", items.String()))
	b.WriteString(ensureParagraph(restyleHighlights(closing)) + "\n")
	b.WriteString(fmt.Sprintf(
		"<p %s><a href=\"%s\">%s</a><br>%s, %s<br><a href=\"%s?utm_source=%s\">%s</a></p>\n",
		paragraphStyle,
		product.SenderLink, product.SenderName,
		product.SenderTitle, product.Name,
		product.URL, safeName, product.URL,
	))
	b.WriteString(fmt.Sprintf("<p %s>P.S. Loved what you've done with <a href=\"%s\">%s</a>.</p>\n", paragraphStyle, website, website))
	b.WriteString("</div>")

	htmlBody := b.String()
	textBody := stripHTML(htmlBody)

	return &model.EmailDraft{
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
		SafeName: safeName,
	}
}

// ensureParagraph wraps bare text in a styled paragraph, leaving
// content that already carries its own markup alone.
func ensureParagraph(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "<p") || strings.HasPrefix(trimmed, "<div") {
		return trimmed
	}
	return fmt.Sprintf("<p %s>%s</p>", paragraphStyle, trimmed)
}

// restyleHighlights rewrites highlight spans into inline bold styling
// so the emphasis survives mail clients that drop class attributes.
func restyleHighlights(s string) string {
	s = strings.ReplaceAll(s, `<span class='highlight'>`, `<span style="font-weight: bold;">`)
	s = strings.ReplaceAll(s, `<span class="highlight">`, `<span style="font-weight: bold;">`)
	return s
}

func fallbackSections(tmpl Template, analysis model.WebsiteAnalysis) model.EmailSections {
	return model.EmailSections{
		SafeName:        model.SafeName(analysis.BusinessName),
		SubjectLine:     tmpl.SubjectFor(analysis.BusinessName),
		CustomIntro:     fmt.Sprintf("I came across %s and was impressed by what you're building.", analysis.BusinessName),
		CustomMainPitch: tmpl.MainPitch,
		KeyPoints:       fallbackKeyPoints(),
		CustomClosing:   "Would love to hear what you think. Happy to set up a quick demo if you're curious.",
	}
}

func fallbackKeyPoints() []string {
	return []string{
		"<span class='highlight'>Text and voice rooms</span> where your members can hang out between visits",
		"<span class='highlight'>Event calendar</span> that keeps your community in the loop automatically",
		"<span class='highlight'>Buddy matching</span> that introduces members with shared interests",
		"<span class='highlight'>Simple tools</span> for announcements, photos, and member chatter",
	}
}

func marshalAnalysis(a model.WebsiteAnalysis) (string, error) {
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func marshalSections(s model.EmailSections) (string, error) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
