package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned by LoadConfig when the file exists but
// cannot be used.
type ConfigurationError struct {
	FilePath    string
	ErrorType   string // parse or validation
	Message     string
	Suggestions []string
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(filePath, errorType, message string, suggestions ...string) *ConfigurationError {
	return &ConfigurationError{
		FilePath:    filePath,
		ErrorType:   errorType,
		Message:     message,
		Suggestions: suggestions,
	}
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", ce.FilePath, ce.ErrorType, ce.Message)
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{
		fmt.Sprintf("Configuration Error in %s", ce.FilePath),
		fmt.Sprintf("  Type: %s", ce.ErrorType),
		fmt.Sprintf("  Error: %s", ce.Message),
	}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}
	return strings.Join(parts, "\n")
}
