package intent

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.[a-z]{2,}(?::\d+)?(?:/\S*)?`)

// Recognizer classifies short replies with keyword lists, no model involved.
type Recognizer struct {
	GreetingKeywords    []string
	AffirmativeKeywords []string
	Fillers             []string
}

func NewRecognizer() *Recognizer {
	return &Recognizer{
		GreetingKeywords: []string{
			"hi", "hello", "hey", "hiya", "howdy", "greetings", "hola", "namaste", "yo",
			"good morning", "good afternoon", "good evening",
		},
		AffirmativeKeywords: []string{
			"yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "alright", "fine",
			"sounds good", "go ahead", "of course", "absolutely", "correct", "right",
		},
		Fillers: []string{"there", "team", "all", "everyone", "please", "thanks", "thank you"},
	}
}

var defaultRecognizer = NewRecognizer()

// IsGreeting reports whether text is nothing but a greeting.
func IsGreeting(text string) bool { return defaultRecognizer.IsGreeting(text) }

// IsAffirmative reports whether text is nothing but an acknowledgement.
func IsAffirmative(text string) bool { return defaultRecognizer.IsAffirmative(text) }

func (r *Recognizer) IsGreeting(text string) bool {
	rest, matched := strip(normalize(text), r.GreetingKeywords)
	if !matched {
		return false
	}
	rest, _ = strip(rest, r.Fillers)
	return rest == ""
}

func (r *Recognizer) IsAffirmative(text string) bool {
	norm := normalize(text)
	if norm == "" {
		return false
	}
	if slices.Contains(r.AffirmativeKeywords, norm) {
		return true
	}
	rest, matched := strip(norm, r.AffirmativeKeywords)
	if !matched {
		return false
	}
	rest, _ = strip(rest, r.Fillers)
	return rest == ""
}

// ContainsURL reports whether text carries a URL-like token such as
// https://example.com or www.example.co.uk.
func ContainsURL(text string) bool {
	return ExtractURL(text) != ""
}

// ExtractURL returns the first URL-like token in text, or "".
func ExtractURL(text string) string {
	for _, m := range urlPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:!?)\"'")
		if strings.HasPrefix(strings.ToLower(m), "http") || strings.Contains(m, ".") {
			return m
		}
	}
	return ""
}

func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, lowered)
	return strings.Join(strings.Fields(cleaned), " ")
}

// strip removes every leading or trailing keyword phrase from text.
func strip(text string, keywords []string) (string, bool) {
	matched := false
	for changed := true; changed && text != ""; {
		changed = false
		for _, k := range keywords {
			switch {
			case text == k:
				text = ""
			case strings.HasPrefix(text, k+" "):
				text = strings.TrimSpace(text[len(k):])
			case strings.HasSuffix(text, " "+k):
				text = strings.TrimSpace(text[:len(text)-len(k)])
			default:
				continue
			}
			matched = true
			changed = true
		}
	}
	return text, matched
}
