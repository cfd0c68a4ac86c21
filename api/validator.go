package api

import (
	"TradeTechCircuit/internal/service"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

const maxCommandLength = 200

// Validator handles validation logic separate from HTTP concerns
type Validator struct {
	maxInputLength int
}

var (
	validatorInstance *Validator
	validatorOnce     sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = &Validator{
			maxInputLength: 100,
		}
	})
	return validatorInstance
}

// ValidateOrderID sanitizes and parses an order id from a path or form field
func (v *Validator) ValidateOrderID(raw string) (int64, error) {
	return service.ParseOrderID(v.sanitizeInput(raw))
}

// ValidateLogLimit validates the limit parameter for log requests
func (v *Validator) ValidateLogLimit(limitStr string, capacity int) (int, error) {
	// If limit is not provided, return the default (whole log)
	if limitStr == "" {
		return DefaultLogLimit, nil
	}

	limitStr = v.sanitizeInput(limitStr)

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, errors.New("limit must be a valid number")
	}

	// Validate range - allow 0 for the whole log
	if limit < 0 || limit > capacity {
		return 0, fmt.Errorf("limit must be between 0 and %d (0 means the whole log)", capacity)
	}

	return limit, nil
}

// SanitizeCommand cleans a chat command without changing its words
func (v *Validator) SanitizeCommand(input string) string {
	input = stripControl(strings.TrimSpace(input))
	return truncate(input, maxCommandLength)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func (v *Validator) sanitizeInput(input string) string {
	input = stripControl(strings.TrimSpace(input))

	// Limit length to prevent DoS
	return truncate(input, v.maxInputLength)
}

// truncate cuts input to at most limit bytes without splitting a rune
func truncate(input string, limit int) string {
	if len(input) <= limit {
		return input
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut]
}

// stripControl removes null bytes and control characters, keeping tab, LF and CR
func stripControl(input string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, input)
}
