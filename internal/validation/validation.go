// Package validation checks user input and reports every failing field at once.
package validation

import "strings"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is ok when it holds no field errors.
type Result struct {
	Errors []FieldError `json:"errors,omitempty"`
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

// Field returns the first message recorded for field.
func (r Result) Field(name string) (string, bool) {
	for _, e := range r.Errors {
		if e.Field == name {
			return e.Message, true
		}
	}
	return "", false
}

func (r Result) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

func (r *Result) check(ok bool, field, message string) {
	if !ok {
		r.add(field, message)
	}
}
