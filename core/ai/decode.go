package ai

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var errNoJSON = errors.New("no JSON payload in completion")

// decodeJSON extracts the outermost JSON array or object from a raw
// completion and unmarshals it into v. Providers routinely wrap payloads
// in markdown fences or prose despite instructions not to.
func decodeJSON(raw string, v interface{}) error {
	s := stripFences(raw)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return errNoJSON
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndexByte(s, ']')
	} else {
		end = strings.LastIndexByte(s, '}')
	}
	if end <= start {
		return errNoJSON
	}

	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return errors.Wrap(err, "unmarshalling completion")
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
