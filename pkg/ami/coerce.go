package ami

import (
	"strconv"
	"strings"
)

// coerceValue converts a raw wire value into a typed value based on the
// field name and the value itself. The manager interface is stringly typed,
// so a handful of well-known shapes get promoted:
//
//   - "yes"/"no" (any case) become booleans
//   - the placeholders "(null)" and "-none-" become empty strings
//   - "QualifyTimeout" is a float on the wire
//   - anything that looks like a port number becomes an int
//
// Everything else is passed through with surrounding whitespace trimmed.
// Unparsable numerics fall back to the zero value rather than erroring,
// matching how the server itself treats junk in these fields.
func coerceValue(name, raw string) any {
	raw = strings.TrimSpace(raw)

	switch strings.ToLower(raw) {
	case "yes":
		return true
	case "no":
		return false
	case "(null)", "-none-":
		return ""
	}

	if name == "QualifyTimeout" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0.0
		}
		return f
	}

	if strings.Contains(strings.ToLower(name), "port") {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0
		}
		return n
	}

	return raw
}
