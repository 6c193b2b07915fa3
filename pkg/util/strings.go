package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses s as an int, returning def when s is empty or
// not a number.
func ParseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
