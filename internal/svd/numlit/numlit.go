// Package numlit decodes the integer and boolean literal forms CMSIS-SVD
// attributes use (§6): decimal, hex (0x/0X), binary (# or 0b), an
// optional leading +, and case-insensitive true/false or 1/0 booleans.
package numlit

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInt decodes a single SVD integer literal.
func ParseInt(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("numlit: empty integer literal")
	}

	neg := false
	if trimmed[0] == '+' {
		trimmed = trimmed[1:]
	} else if trimmed[0] == '-' {
		neg = true
		trimmed = trimmed[1:]
	}

	var v int64
	var err error
	switch {
	case strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X"):
		v, err = strconv.ParseInt(trimmed[2:], 16, 64)
	case strings.HasPrefix(trimmed, "0b") || strings.HasPrefix(trimmed, "0B"):
		v, err = strconv.ParseInt(trimmed[2:], 2, 64)
	case strings.HasPrefix(trimmed, "#"):
		v, err = strconv.ParseInt(trimmed[1:], 2, 64)
	default:
		v, err = strconv.ParseInt(trimmed, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("numlit: invalid integer literal %q: %w", s, err)
	}

	if neg {
		v = -v
	}
	return v, nil
}

// ParseBool decodes an SVD boolean literal: true/false or 1/0,
// case-insensitive.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("numlit: invalid boolean literal %q", s)
	}
}
