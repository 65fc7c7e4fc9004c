package models

import (
	"fmt"
	"strings"
)

// ConfigurationError reports missing required credentials. It is raised
// before any network call is attempted.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// SchemaResolutionError reports that one or more required columns could not
// be identified after all fallbacks. The resolved names of the other fields
// are included for diagnosis; an empty string marks the field that failed.
type SchemaResolutionError struct {
	DateColumn   string
	SupplyColumn string
	BorrowColumn string
	Columns      []string
}

func (e *SchemaResolutionError) Error() string {
	return fmt.Sprintf(
		"unable to find required columns: date=%s supply=%s borrow=%s (available: %s)",
		orNone(e.DateColumn), orNone(e.SupplyColumn), orNone(e.BorrowColumn),
		strings.Join(e.Columns, ", "),
	)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// EmptyResultError reports that a required remote fetch produced zero usable
// rows after cleaning.
type EmptyResultError struct {
	Source string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s returned no usable rows", e.Source)
}

// TransportError reports a network or HTTP failure talking to a remote
// source. It is fatal and never retried.
type TransportError struct {
	Source string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed: %s returned status %d", e.Source, e.URL, e.Status)
	}
	return fmt.Sprintf("%s request failed: %s: %v", e.Source, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
