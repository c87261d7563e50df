package reddit

import (
	"fmt"
	"strings"
)

// APIError is an application-level failure reported inside a successful HTTP
// response, e.g. a stylesheet the API refused to save.
type APIError struct {
	Endpoint string
	Errors   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit %s: %s", e.Endpoint, strings.Join(e.Errors, "; "))
}

// flattenErrors renders the API's error tuples ([code, message, field]) as
// "CODE: message" strings.
func flattenErrors(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				if s, ok := p.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 2 {
				parts = parts[:2]
			}
			out = append(out, strings.Join(parts, ": "))
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
