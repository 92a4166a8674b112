package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/TestFlowLabs/bridge/internal/service"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

// Validate checks the configuration and every service in it.
func (c Config) Validate() error {
	var errs ValidationErrors

	if c.APIURL != "" {
		if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("apiUrl", fmt.Sprintf("%q is not an absolute URL", c.APIURL))
		}
	}
	if c.ReadyTimeout < 0 {
		errs.Add("readyTimeout", "must not be negative")
	}
	if c.StopGracePeriod < 0 {
		errs.Add("stopGracePeriod", "must not be negative")
	}
	if c.Probe.Interval < 0 {
		errs.Add("probe.interval", "must not be negative")
	}
	if c.Probe.Timeout < 0 {
		errs.Add("probe.timeout", "must not be negative")
	}
	if c.Probe.Attempts < 0 {
		errs.Add("probe.attempts", "must not be negative")
	}

	names := make(map[string]string)
	claim := func(name, field string) {
		if prev, dup := names[name]; dup {
			errs.Add(field, fmt.Sprintf("name %q is already used by %s", name, prev))
			return
		}
		names[name] = field
	}

	for i, svc := range c.Services {
		prefix := fmt.Sprintf("services[%d]", i)
		def := svc.definition("")
		if err := def.Validate(); err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				for _, f := range verr.Fields {
					errs.Add(prefix+"."+f.Field, f.Message)
				}
			} else {
				errs.Add(prefix, err.Error())
			}
		}
		claim(def.Name(), prefix)

		for j, child := range svc.Children {
			childPrefix := fmt.Sprintf("%s.children[%d]", prefix, j)
			if strings.TrimSpace(child.Name) == "" {
				errs.Add(childPrefix+".name", "is required")
			} else {
				claim(child.Name, childPrefix)
			}
			if strings.TrimSpace(child.Path) == "" {
				errs.Add(childPrefix+".path", "is required")
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
