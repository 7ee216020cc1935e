// Package compose turns fetched website content into a personalized
// outreach email through a chain of best-effort LLM stages.
package compose

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Product identifies the product being pitched and its sender identity.
type Product struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	SenderName  string `yaml:"sender_name"`
	SenderTitle string `yaml:"sender_title"`
	SenderLink  string `yaml:"sender_link"`
}

// Template is one category entry of the registry.
type Template struct {
	ExtraContext string `yaml:"extra_context"`
	Subject      string `yaml:"subject"`
	MainPitch    string `yaml:"main_pitch"`
}

// Registry holds the product identity and email templates.
type Registry struct {
	Product         Product             `yaml:"product"`
	DefaultTemplate string              `yaml:"default_template"`
	Templates       map[string]Template `yaml:"templates"`
}

// LoadRegistry parses the embedded template registry.
func LoadRegistry() (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(templatesYAML, &r); err != nil {
		return nil, eris.Wrap(err, "compose: parse template registry")
	}
	if len(r.Templates) == 0 {
		return nil, eris.New("compose: template registry is empty")
	}
	if _, ok := r.Templates[r.DefaultTemplate]; !ok {
		return nil, eris.Errorf("compose: default template %q not in registry", r.DefaultTemplate)
	}
	return &r, nil
}

// Keys returns the template keys in stable order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.Templates))
	for k := range r.Templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the template for key, falling back to the default.
func (r *Registry) Get(key string) Template {
	if t, ok := r.Templates[key]; ok {
		return t
	}
	return r.Templates[r.DefaultTemplate]
}

// Subject interpolates the business name into a subject pattern.
func (t Template) SubjectFor(businessName string) string {
	return strings.ReplaceAll(t.Subject, "{business_name}", businessName)
}
