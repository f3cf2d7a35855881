package utils

import (
	"strconv"
)

// ParseInt converts string to int with default value.
// Values below min fall back to the default.
func ParseInt(value string, defaultValue, min int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < min {
		return defaultValue
	}

	return result
}

// ParseID parses a positive int64 path parameter.
func ParseID(value string) (int64, bool) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
