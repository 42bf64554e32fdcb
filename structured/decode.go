package structured

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

var ErrNoJSON = errors.New("no JSON object found")

// Decode parses raw model output into T. Markdown code fences are removed
// first; when the remainder is not valid JSON the first top-level object
// embedded in the text that decodes into T is used.
func Decode[T any](raw string) (*T, error) {
	text := StripCodeFences(raw)
	if text == "" {
		return nil, ErrNoJSON
	}
	var result T
	err := sonic.UnmarshalString(text, &result)
	if err == nil {
		return &result, nil
	}
	candidates := FindJSONObjects(text)
	for _, candidate := range candidates {
		var v T
		if sonic.UnmarshalString(candidate, &v) == nil {
			return &v, nil
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoJSON
	}
	return nil, fmt.Errorf("decode JSON failed: %w", err)
}

// StripCodeFences removes a surrounding ``` or ```json fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		lang := strings.TrimSpace(s[:i])
		if lang == "" || !strings.ContainsAny(lang, "{[\" ") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// FindJSONObjects returns every balanced top-level {...} span in s.
// Quotes are only tracked inside an object so apostrophes and quotes in
// surrounding prose do not confuse the scan.
func FindJSONObjects(s string) []string {
	var (
		candidates []string
		depth      int
		start      = -1
		inString   bool
		escape     bool
	)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if depth == 0 {
			if b == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidates = append(candidates, s[start:i+1])
				start = -1
			}
		}
	}
	return candidates
}
