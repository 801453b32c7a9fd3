// Package audit wraps tool operations with timing, metrics and a masked
// structured audit log entry per call.
package audit

import "strings"

// RedactedValue replaces the value of every sensitive parameter.
const RedactedValue = "***"

// sensitiveKeys is compared against lower-cased parameter names.
var sensitiveKeys = map[string]struct{}{
	"email":         {},
	"password":      {},
	"token":         {},
	"authorization": {},
	"ip_address":    {},
}

// Mask returns a copy of params with sensitive values redacted.
// The input map is never modified.
func Mask(params map[string]any) map[string]any {
	masked := make(map[string]any, len(params))
	for k, v := range params {
		if IsSensitive(k) {
			masked[k] = RedactedValue
			continue
		}
		masked[k] = v
	}
	return masked
}

// IsSensitive reports whether a parameter name is on the denylist.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}
