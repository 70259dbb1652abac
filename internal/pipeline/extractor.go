package pipeline

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrExtractionFailed means no strategy found a JSON payload of the expected kind.
var ErrExtractionFailed = errors.New("no json payload found in model output")

// Kind is the JSON shape a caller expects.
type Kind int

const (
	KindObject Kind = iota
	KindArray
)

func (k Kind) delims() (byte, byte) {
	if k == KindArray {
		return '[', ']'
	}
	return '{', '}'
}

func (k Kind) String() string {
	if k == KindArray {
		return "array"
	}
	return "object"
}

// strategy proposes a candidate substring for kind k.
type strategy struct {
	name string
	find func(text string, k Kind) (string, bool)
}

// strategies run in order; the first valid candidate wins.
var strategies = []strategy{
	{name: "outermost_span", find: outermostSpan},
	{name: "fenced_block", find: fencedBlock},
	{name: "balanced_span", find: balancedSpan},
}

var (
	fencePattern        = regexp.MustCompile("(?s)```(?:json|JSON)\\s*(.*?)\\s*```")
	nestedObjectPattern = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
	nestedArrayPattern  = regexp.MustCompile(`(?s)\[[^\[\]]*(?:\[[^\[\]]*\][^\[\]]*)*\]`)
)

// Extract returns the JSON substring of kind k embedded in model text.
func Extract(text string, k Kind) (string, error) {
	s, _, err := extractWith(text, k)
	return s, err
}

func extractWith(text string, k Kind) (string, string, error) {
	for _, st := range strategies {
		if s, ok := st.find(text, k); ok {
			return s, st.name, nil
		}
	}
	return "", "", ErrExtractionFailed
}

// outermostSpan takes first opening to last closing delimiter, on the
// assumption that prose wraps the real answer.
func outermostSpan(text string, k Kind) (string, bool) {
	open, close := k.delims()
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return validCandidate(text[start:end+1], k)
}

func fencedBlock(text string, k Kind) (string, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if s, ok := validCandidate(m[1], k); ok {
			return s, true
		}
	}
	return "", false
}

func balancedSpan(text string, k Kind) (string, bool) {
	pattern := nestedObjectPattern
	if k == KindArray {
		pattern = nestedArrayPattern
	}
	for _, m := range pattern.FindAllString(text, -1) {
		if s, ok := validCandidate(m, k); ok {
			return s, true
		}
	}
	return "", false
}

func validCandidate(s string, k Kind) (string, bool) {
	s = strings.TrimSpace(s)
	open, _ := k.delims()
	if s == "" || s[0] != open || !json.Valid([]byte(s)) {
		return "", false
	}
	return s, true
}
