package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

// scriptedLLM returns canned responses in call order; once the script
// runs out it errors.
type scriptedLLM struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	text, err := s.Complete(ctx, req.Messages, req.Model, 0)
	if err != nil {
		return nil, err
	}
	return &anthropic.MessageResponse{Text: text}, nil
}

func (s *scriptedLLM) Complete(_ context.Context, _ []anthropic.Message, _ string, _ float64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.responses) {
		return "", errors.New("script exhausted")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func testComposer(t *testing.T, llm anthropic.Client) *Composer {
	t.Helper()
	registry, err := LoadRegistry()
	require.NoError(t, err)
	return New(llm, registry, config.AnthropicConfig{HaikuModel: "fast", SonnetModel: "draft"})
}

func testContact() model.Contact {
	return model.Contact{
		Organization: "Iron Works Gym",
		Website:      "https://ironworksgym.com",
		Email:        "owner@ironworksgym.com",
		Notes:        "Family owned since 2004",
	}
}

func TestCompose_AllStagesFailStillYieldsDraft(t *testing.T) {
	t.Parallel()

	c := testComposer(t, &scriptedLLM{err: errors.New("api unavailable")})

	draft, err := c.Compose(context.Background(), testContact(), "<html><body>Gym stuff</body></html>")
	require.NoError(t, err, "model failures must degrade, not fail the contact")

	assert.NotEmpty(t, draft.Subject)
	assert.NotEmpty(t, draft.HTMLBody)
	assert.NotEmpty(t, draft.TextBody)
	assert.Contains(t, draft.HTMLBody, "<li")
	assert.Contains(t, draft.HTMLBody, "Hello!!")
	assert.Equal(t, "ironworksgym", draft.SafeName)
	assert.Contains(t, draft.Subject, "Ironworksgym",
		"fallback subject should carry the URL-derived business name")
}

func TestCompose_GarbageResponsesStillYieldDraft(t *testing.T) {
	t.Parallel()

	c := testComposer(t, &scriptedLLM{responses: []string{
		"I'm sorry, I can't produce JSON today",
		"not json either",
		"{broken json",
		"nope",
	}})

	draft, err := c.Compose(context.Background(), testContact(), "<html>x</html>")
	require.NoError(t, err)
	assert.NotEmpty(t, draft.Subject)
	assert.NotEmpty(t, draft.HTMLBody)
}

func TestCompose_FullScriptedRun(t *testing.T) {
	t.Parallel()

	c := testComposer(t, &scriptedLLM{responses: []string{
		`{"summary":"Neighborhood gym","business_type":"fitness","business_name":"Iron Works","key_features":["24/7 access"],"community_aspects":["group classes"],"contact_person":"Dana"}`,
		`{"template_key":"fitness_center","reason":"it is a gym"}`,
		`{"safe_name":"iron-works","subject_line":"Bring Iron Works members together","custom_intro":"<p>Loved the 24/7 access.</p>","custom_main_pitch":"<p>Pitch</p>","key_points":["<span class='highlight'>Event calendar</span> for classes"],"custom_closing":"Worth a quick chat?","specific_references":"24/7 access"}`,
		`{"safe_name":"iron-works","subject_line":"Bring Iron Works members together","custom_intro":"<p>Loved the 24/7 access.</p>","custom_main_pitch":"<p>Pitch</p>","key_points":["<span class='highlight'>Event calendar</span> for classes"],"custom_closing":"Worth a quick chat?","specific_references":"24/7 access"}`,
	}})

	draft, err := c.Compose(context.Background(), testContact(), "<html>gym</html>")
	require.NoError(t, err)

	assert.Equal(t, "Bring Iron Works members together", draft.Subject)
	assert.Equal(t, "iron-works", draft.SafeName)
	assert.Contains(t, draft.HTMLBody, "Loved the 24/7 access.")
	assert.Contains(t, draft.HTMLBody, `style="font-weight: bold;"`,
		"highlight spans should be rewritten to inline styles")
	assert.NotContains(t, draft.HTMLBody, "class='highlight'")
	assert.Contains(t, draft.HTMLBody, "utm_source=iron-works")
}

func TestCompose_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testComposer(t, &scriptedLLM{err: errors.New("unused")})
	_, err := c.Compose(ctx, testContact(), "<html>x</html>")
	require.Error(t, err)
}

func TestLoadRegistry(t *testing.T) {
	t.Parallel()

	registry, err := LoadRegistry()
	require.NoError(t, err)

	assert.NotEmpty(t, registry.Product.Name)
	assert.NotEmpty(t, registry.DefaultTemplate)
	_, ok := registry.Templates[registry.DefaultTemplate]
	assert.True(t, ok, "default template key must exist in the registry")

	for _, key := range []string{"community", "coworking", "fitness_center", "brewery"} {
		tmpl := registry.Get(key)
		assert.NotEmpty(t, tmpl.Subject, "template %s has no subject", key)
		assert.NotEmpty(t, tmpl.MainPitch, "template %s has no pitch", key)
	}
}

func TestRegistryGet_UnknownKeyFallsBack(t *testing.T) {
	t.Parallel()

	registry, err := LoadRegistry()
	require.NoError(t, err)

	unknown := registry.Get("no-such-template")
	def := registry.Get(registry.DefaultTemplate)
	assert.Equal(t, def, unknown)
}

func TestSubjectFor(t *testing.T) {
	t.Parallel()

	tmpl := Template{Subject: "Grow {business_name} with us"}
	assert.Equal(t, "Grow Blue Door Books with us", tmpl.SubjectFor("Blue Door Books"))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var out struct {
		Key string `json:"key"`
	}

	require.NoError(t, decodeJSON(`{"key":"plain"}`, &out))
	assert.Equal(t, "plain", out.Key)

	require.NoError(t, decodeJSON("```json\n{\"key\":\"fenced\"}\n```", &out))
	assert.Equal(t, "fenced", out.Key)

	require.NoError(t, decodeJSON("Here you go:\n\n{\"key\":\"prose\"}\n\nHope that helps!", &out))
	assert.Equal(t, "prose", out.Key)

	assert.Error(t, decodeJSON("no json here", &out))
	assert.Error(t, decodeJSON("", &out))
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	in := `<html><head><style>body{color:red}</style><script>alert(1)</script></head>
<body><nav>Menu</nav><h1>Blue Door Books</h1><p>Used &amp; rare books</p><footer>footer junk</footer></body></html>`
	got := stripHTML(in)

	assert.Contains(t, got, "Blue Door Books")
	assert.Contains(t, got, "Used & rare books")
	assert.NotContains(t, got, "alert")
	assert.NotContains(t, got, "color:red")
	assert.NotContains(t, got, "Menu")
	assert.NotContains(t, got, "footer junk")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	got := truncate("abcdefghij", 4)
	assert.Equal(t, "abcd...", got)
}
