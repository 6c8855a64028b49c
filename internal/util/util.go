// Package util provides small string helpers shared by the command layer.
package util

import (
	"slices"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// Contains reports whether str is in slice.
func Contains(slice []string, str string) bool {
	return slices.Contains(slice, str)
}

// SplitArgs splits a command line on whitespace. A double-quoted section is
// kept as one argument with the quotes stripped; "" inside quotes is a literal
// quote.
func SplitArgs(line string) []string {
	var (
		args    []string
		b       strings.Builder
		quoted  bool
		started bool
	)
	flush := func() {
		if started {
			args = append(args, b.String())
		}
		b.Reset()
		started = false
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && quoted && i+1 < len(runes) && runes[i+1] == '"':
			b.WriteRune('"')
			i++
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			flush()
		default:
			b.WriteRune(r)
			started = true
		}
	}
	flush()
	return args
}
