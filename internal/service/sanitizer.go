package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from free text typed into the forms.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer uses the strict policy, which keeps no elements.
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean trims value and removes any tags. Text without angle brackets is
// only trimmed so entities like "&" survive untouched.
func (s *TextSanitizer) Clean(value string) string {
	value = strings.TrimSpace(value)
	if !strings.ContainsAny(value, "<>") {
		return value
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}
