package schema

import (
	"sort"
	"strconv"
	"strings"
)

// FieldError is a problem with a single input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every field that failed decoding or validation.
// It is a client error: the observation never reaches feature engineering.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "invalid observation: " + strings.Join(parts, "; ")
}

// FieldNames returns the offending field names.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Fields = append(e.Fields, other.Fields...)
}

// errOrNil sorts the collected errors into catalogue order and returns nil
// when nothing was collected.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	sort.SliceStable(e.Fields, func(i, j int) bool {
		return rank(e.Fields[i].Field) < rank(e.Fields[j].Field)
	})
	return e
}

func rank(name string) int {
	if i, ok := fieldIndex[name]; ok {
		return i
	}
	return len(Fields)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
