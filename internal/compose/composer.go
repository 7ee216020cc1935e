package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

// maxPageContentLen bounds the page text embedded in analyze prompts.
const maxPageContentLen = 8000

// Composer chains the LLM stages: analyze, select, customize, refine,
// render. Every LLM stage is best-effort; a failed stage degrades to a
// documented fallback and the chain continues, so one bad model response
// never wastes a successful fetch. Only cancellation aborts.
type Composer struct {
	llm        anthropic.Client
	registry   *Registry
	fastModel  string
	draftModel string
}

// New creates a Composer.
func New(llm anthropic.Client, registry *Registry, cfg config.AnthropicConfig) *Composer {
	return &Composer{
		llm:        llm,
		registry:   registry,
		fastModel:  cfg.HaikuModel,
		draftModel: cfg.SonnetModel,
	}
}

// Compose produces the email draft for a contact from raw page HTML.
func (c *Composer) Compose(ctx context.Context, contact model.Contact, pageHTML string) (*model.EmailDraft, error) {
	website := model.NormalizeURL(contact.Website)
	log := zap.L().With(zap.String("website", website))

	pageText := truncate(stripHTML(pageHTML), maxPageContentLen)

	analysis := c.analyze(ctx, website, pageText, contact.Notes)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "compose: cancelled")
	}
	log.Debug("compose: analysis complete", zap.String("business_name", analysis.BusinessName))

	templateKey := c.selectTemplate(ctx, analysis)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "compose: cancelled")
	}

	sections := c.customize(ctx, templateKey, analysis, contact.Notes)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "compose: cancelled")
	}

	sections = c.refine(ctx, sections, analysis)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "compose: cancelled")
	}

	draft := c.render(templateKey, sections, analysis, website)
	return draft, nil
}

// analyze extracts a structured WebsiteAnalysis, defaulting to a
// URL-derived analysis on any model or parse failure.
func (c *Composer) analyze(ctx context.Context, website, pageText, notes string) model.WebsiteAnalysis {
	notesContext := "No additional notes available."
	if notes != "" {
		notesContext = "Important context from our research:\n" + notes
	}

	messages := []anthropic.Message{
		{Role: "system", Content: analyzeSystemPrompt},
		{Role: "user", Content: "For context, here is some context about the product:\n" + productContext},
		{Role: "user", Content: fmt.Sprintf(
			"Please analyze this lead, incorporating both the research notes and website content.\n\nRESEARCH NOTES:\n%s\n\nWEBSITE URL: %s\n\nWEBSITE CONTENT:\n%s",
			notesContext, website, pageText,
		)},
	}

	raw, err := c.llm.Complete(ctx, messages, c.fastModel, 0.1)
	if err != nil || strings.TrimSpace(raw) == "" {
		zap.L().Warn("compose: analyze stage degraded, using fallback analysis",
			zap.String("website", website), zap.Error(err))
		return model.FallbackAnalysis(website)
	}

	var analysis model.WebsiteAnalysis
	if err := decodeJSON(raw, &analysis); err != nil {
		zap.L().Warn("compose: analyze response unparseable, using fallback analysis",
			zap.String("website", website), zap.Error(err))
		return model.FallbackAnalysis(website)
	}
	if analysis.BusinessName == "" {
		analysis.BusinessName = model.BusinessNameFromURL(website)
	}
	return analysis
}

// selectTemplate picks a registry key for the business, defaulting on
// failure or an unknown key.
func (c *Composer) selectTemplate(ctx context.Context, analysis model.WebsiteAnalysis) string {
	analysisJSON, _ := marshalAnalysis(analysis)

	messages := []anthropic.Message{
		{Role: "system", Content: selectSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Allowed template keys: %s.\n\nPlease select a template based on this analysis:\n%s",
			strings.Join(c.registry.Keys(), ", "), analysisJSON,
		)},
	}

	raw, err := c.llm.Complete(ctx, messages, c.fastModel, 0.1)
	if err != nil {
		zap.L().Warn("compose: select stage degraded, using default template", zap.Error(err))
		return c.registry.DefaultTemplate
	}

	var sel struct {
		TemplateKey string `json:"template_key"`
		Reason      string `json:"reason"`
	}
	if err := decodeJSON(raw, &sel); err != nil {
		zap.L().Warn("compose: select response unparseable, using default template", zap.Error(err))
		return c.registry.DefaultTemplate
	}
	if _, ok := c.registry.Templates[sel.TemplateKey]; !ok {
		return c.registry.DefaultTemplate
	}
	return sel.TemplateKey
}

// customize drafts the email sections, falling back to a fixed generic
// set when the model fails.
func (c *Composer) customize(ctx context.Context, templateKey string, analysis model.WebsiteAnalysis, notes string) model.EmailSections {
	tmpl := c.registry.Get(templateKey)

	notesContext := "No additional notes available."
	if notes != "" {
		notesContext = "Important context from our research:\n" + notes
	}
	analysisJSON, _ := marshalAnalysis(analysis)

	messages := []anthropic.Message{
		{Role: "system", Content: fmt.Sprintf(customizeSystemPrompt, tmpl.ExtraContext)},
		{Role: "user", Content: "For context, here is some context about the product:\n" + productContext},
		{Role: "user", Content: fmt.Sprintf(
			"Please customize the template using both the research notes and website analysis.\n\nRESEARCH NOTES:\n%s\n\nWEBSITE ANALYSIS:\n%s",
			notesContext, analysisJSON,
		)},
	}

	raw, err := c.llm.Complete(ctx, messages, c.draftModel, 0.3)
	if err != nil {
		zap.L().Warn("compose: customize stage degraded, using fallback sections", zap.Error(err))
		return fallbackSections(tmpl, analysis)
	}

	var sections model.EmailSections
	if err := decodeJSON(raw, &sections); err != nil {
		zap.L().Warn("compose: customize response unparseable, using fallback sections", zap.Error(err))
		return fallbackSections(tmpl, analysis)
	}

	if sections.SafeName == "" {
		sections.SafeName = model.SafeName(analysis.BusinessName)
	}
	if len(sections.KeyPoints) == 0 {
		sections.KeyPoints = fallbackKeyPoints()
	}
	return sections
}

// refine rewrites the sections for flow. Strictly best-effort: any
// failure returns the input unchanged.
func (c *Composer) refine(ctx context.Context, sections model.EmailSections, analysis model.WebsiteAnalysis) model.EmailSections {
	analysisJSON, _ := marshalAnalysis(analysis)
	sectionsJSON, err := marshalSections(sections)
	if err != nil {
		return sections
	}

	messages := []anthropic.Message{
		{Role: "system", Content: refineSystemPrompt},
		{Role: "user", Content: "Here is the business we are reaching out to:\nBUSINESS CONTEXT:\n" + analysisJSON},
		{Role: "user", Content: "Here is the current draft email content to refine:\nCURRENT EMAIL SECTIONS:\n" + sectionsJSON},
	}

	raw, err := c.llm.Complete(ctx, messages, c.draftModel, 0.3)
	if err != nil {
		zap.L().Warn("compose: refine stage degraded, keeping draft sections", zap.Error(err))
		return sections
	}

	var refined model.EmailSections
	if err := decodeJSON(raw, &refined); err != nil {
		zap.L().Warn("compose: refine response unparseable, keeping draft sections", zap.Error(err))
		return sections
	}
	if refined.SafeName == "" {
		refined.SafeName = sections.SafeName
	}
	if len(refined.KeyPoints) == 0 {
		refined.KeyPoints = sections.KeyPoints
	}
	return refined
}
