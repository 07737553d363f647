// Package utils holds small helpers shared by the HTTP layer.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadLimit reports a limit that is not a positive integer.
var ErrBadLimit = errors.New("limit must be a positive integer")

// ParseLimit parses a list limit. An empty string means no limit and yields
// 0. Values above max are clamped to max when max > 0.
//
//	utils.ParseLimit("", 100)    // 0, nil
//	utils.ParseLimit("20", 100)  // 20, nil
//	utils.ParseLimit("500", 100) // 100, nil
//	utils.ParseLimit("0", 100)   // 0, ErrBadLimit
func ParseLimit(raw string, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadLimit
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}
