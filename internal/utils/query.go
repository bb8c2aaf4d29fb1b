// Package utils contains small parsing helpers for query parameters.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidBool is returned by OptionalBool for unrecognised values.
var ErrInvalidBool = errors.New("invalid boolean")

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

// OptionalBool parses a tri-state query flag: "" yields nil, otherwise one
// of 1/0, true/false, yes/no, on/off (case-insensitive).
func OptionalBool(s string) (*bool, error) {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "1", "true", "yes", "on":
		v = true
	case "0", "false", "no", "off":
		v = false
	default:
		return nil, ErrInvalidBool
	}
	return &v, nil
}
