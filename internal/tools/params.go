package tools

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrInvalidParameter is matched by every parameter validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamError describes a rejected tool argument.
type ParamError struct {
	Name   string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Name, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidParameter) hold for every ParamError.
func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// ErrorCategory names the error in audit entries.
func (e *ParamError) ErrorCategory() string {
	return "InvalidParameter"
}

func invalid(name, format string, args ...any) error {
	return &ParamError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

// intParam reads an optional integer argument. Absent or null values
// yield def. Fractional numbers and booleans are rejected.
func intParam(params map[string]any, name string, def int64) (int64, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return def, nil
	}
	return toInt64(name, raw)
}

// requiredIntParam reads a mandatory integer argument.
func requiredIntParam(params map[string]any, name string) (int64, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return 0, invalid(name, "is required")
	}
	return toInt64(name, raw)
}

// requiredStringParam reads a mandatory string argument.
func requiredStringParam(params map[string]any, name string) (string, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", invalid(name, "is required")
	}
	switch raw.(type) {
	case map[string]any, []any, bool:
		return "", invalid(name, "must be a string")
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", invalid(name, "must be a string")
	}
	return s, nil
}

func toInt64(name string, raw any) (int64, error) {
	switch v := raw.(type) {
	case bool:
		return 0, invalid(name, "must be an integer")
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt64/2 {
			return 0, invalid(name, "must be an integer")
		}
		return int64(v), nil
	case float32:
		return toInt64(name, float64(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalid(name, "must be an integer")
		}
		return n, nil
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, invalid(name, "must be an integer")
	}
	return n, nil
}

// inRange rejects v outside [lo, hi].
func inRange(name string, v, lo, hi int64) error {
	if v < lo || v > hi {
		return invalid(name, "must be between %d and %d, got %d", lo, hi, v)
	}
	return nil
}
