package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxNameLength bounds list and item names before they reach the sync core.
const MaxNameLength = 120

// ValidateName checks a list or item name entered on the command line.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name must not be empty")
	}
	if len(trimmed) > MaxNameLength {
		return fmt.Errorf("name too long: %d characters (max %d)", len(trimmed), MaxNameLength)
	}
	return nil
}

// ParseQuantityFlag parses a quantity value string. Returns an error for
// non-numeric or non-positive values.
func ParseQuantityFlag(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: expected a number", value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %v", v)
	}
	return v, nil
}
