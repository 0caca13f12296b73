package markerplan

import (
	"strconv"
	"strings"
)

// ValidationError captures a single field-level problem in an input record.
type ValidationError struct {
	Record  int
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	parts := []string{formatRecord(e.Record)}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ValidationErrors aggregates multiple validation issues.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Issues returns a copy of the underlying validation errors.
func (errs ValidationErrors) Issues() []ValidationError {
	return append([]ValidationError(nil), errs...)
}

func formatRecord(n int) string {
	if n <= 0 {
		return "marker"
	}
	return "marker " + strconv.Itoa(n)
}
