package marker

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether a page starts a new document and returns its
// registration number.
type Matcher interface {
	Match(text string) (string, bool)
}

// Mode selects the accepted registration-number token shape.
type Mode int

const (
	// Strict accepts "RA" followed by digits.
	Strict Mode = iota
	// Lenient accepts any alphanumeric run.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown marker mode: %q", s)
	}
}

const label = "Registration Number"

var tokenPatterns = map[Mode]string{
	Strict:  `(RA\d+)`,
	Lenient: `([A-Z0-9]+)`,
}

// RegexMatcher matches the "Registration Number: <token>" label. Text
// extraction from scanned or generated PDFs often splits words, so any
// whitespace is allowed between the letters of the label.
type RegexMatcher struct {
	mode Mode
	re   *regexp.Regexp
}

// New builds a matcher for the given mode.
func New(mode Mode) *RegexMatcher {
	tok, ok := tokenPatterns[mode]
	if !ok {
		mode = Strict
		tok = tokenPatterns[Strict]
	}
	return &RegexMatcher{
		mode: mode,
		re:   regexp.MustCompile(`(?i)` + labelPattern(label) + `\s*:\s*` + tok),
	}
}

// Mode reports the token shape this matcher accepts.
func (m *RegexMatcher) Mode() Mode {
	return m.mode
}

// Match returns the first registration number in text, normalized.
func (m *RegexMatcher) Match(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	sub := m.re.FindStringSubmatch(text)
	if sub == nil {
		return "", false
	}
	reg := Normalize(sub[1])
	if reg == "" {
		return "", false
	}
	return reg, true
}

// Normalize strips all whitespace from a token and upper-cases it.
func Normalize(token string) string {
	return strings.ToUpper(strings.Join(strings.Fields(token), ""))
}

// labelPattern turns "Registration Number" into a pattern that tolerates
// whitespace between every letter and between the words.
func labelPattern(s string) string {
	words := strings.Fields(s)
	parts := make([]string, len(words))
	for i, w := range words {
		letters := make([]string, 0, len(w))
		for _, r := range w {
			letters = append(letters, regexp.QuoteMeta(string(r)))
		}
		parts[i] = strings.Join(letters, `\s*`)
	}
	return strings.Join(parts, `\s*`)
}
