// Package sanitize strips markup from untrusted request bodies and checks
// required fields before anything is forwarded upstream.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

// Result carries the outcome of a validation pass. Sanitized always holds
// the cleaned copy of the input, whether or not validation succeeded.
type Result struct {
	IsValid   bool
	Errors    []string
	Sanitized map[string]any
}

// Validate checks required fields and sanitizes every string value in data.
//
// Required fields are checked twice: once against the raw input and again
// after sanitization, so a field consisting entirely of markup fails instead
// of slipping through as an empty string. A required field holding a zero
// value of any type (empty string, 0, false, nil) is rejected.
func Validate(data map[string]any, required []string) Result {
	res := Result{Sanitized: make(map[string]any, len(data))}

	for _, name := range required {
		if isZero(data[name]) {
			res.Errors = append(res.Errors, fmt.Sprintf("Field '%s' is required", name))
		}
	}

	for key, value := range data {
		if s, ok := value.(string); ok {
			res.Sanitized[key] = Clean(s)
		} else {
			res.Sanitized[key] = value
		}
	}

	// Re-check after sanitization: markup-only strings became empty.
	for _, name := range required {
		if !isZero(data[name]) && isZero(res.Sanitized[name]) {
			res.Errors = append(res.Errors, fmt.Sprintf("Field '%s' is required", name))
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// Clean removes <script> blocks, strips remaining tags and trims whitespace.
func Clean(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	default:
		return false
	}
}
