package compose

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// decodeJSON unmarshals an LLM response into out, tolerating fenced code
// blocks and leading/trailing prose around the JSON object.
func decodeJSON(raw string, out any) error {
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return eris.New("compose: no JSON object in response")
	}

	if err := json.Unmarshal([]byte(s[start:end+1]), out); err != nil {
		return eris.Wrap(err, "compose: unmarshal response")
	}
	return nil
}
