package service

import (
	"fmt"
	"strings"
)

// FieldError is one invalid field of a definition.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in one definition so a test
// author can fix them in a single pass.
type ValidationError struct {
	Service string       `json:"service"`
	Fields  []FieldError `json:"fields"`
}

func (ve *ValidationError) add(field, message string) {
	ve.Fields = append(ve.Fields, FieldError{Field: field, Message: message})
}

// HasErrors returns true if any field failed validation.
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Fields) > 0
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return fmt.Sprintf("service %q: invalid definition", ve.Service)
	}
	parts := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("service %q: invalid definition: %s", ve.Service, strings.Join(parts, "; "))
}

// HasField reports whether field is among the failures.
func (ve *ValidationError) HasField(field string) bool {
	for _, f := range ve.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
