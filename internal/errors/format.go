package errors

import (
	"fmt"
	"strings"
)

// FormatForCLI renders err the way the CLI prints failures:
//
//	Error: <message>
//	  Hint: <suggestion>
//	  Code: <code>
//
// Uncoded errors are reported as internal.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	se, ok := as(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&b, "  Hint: %s\n", se.Suggestion)
	}
	fmt.Fprintf(&b, "  Code: %s\n", se.Code)
	return b.String()
}

// LogAttrs returns slog key/value pairs describing err.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}
	se, ok := as(err)
	if !ok {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", se.Code,
		"error", se.Message,
		"category", string(se.Category),
		"severity", string(se.Severity),
	}
	if se.Cause != nil {
		attrs = append(attrs, "cause", se.Cause.Error())
	}
	for k, v := range se.Details {
		attrs = append(attrs, "detail_"+k, v)
	}
	return attrs
}
