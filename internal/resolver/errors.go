package resolver

import (
	"fmt"
	"strings"

	"github.com/diogo/compliancegen/internal/models"
)

// ExhaustedError is returned when every candidate endpoint failed.
// Unwrap yields the error of the last attempt.
type ExhaustedError struct {
	Attempts []models.Attempt
}

func (e *ExhaustedError) Error() string {
	switch len(e.Attempts) {
	case 0:
		return "all candidate endpoints failed"
	case 1:
		return fmt.Sprintf("all candidate endpoints failed: %s", describe(e.Attempts[0]))
	}
	return fmt.Sprintf("all candidate endpoints failed after %d attempts; first: %s; last: %s",
		len(e.Attempts), describe(e.First()), describe(e.Last()))
}

// Unwrap returns the last underlying error
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Last().Err
}

// First returns the first failed attempt
func (e *ExhaustedError) First() models.Attempt {
	if len(e.Attempts) == 0 {
		return models.Attempt{}
	}
	return e.Attempts[0]
}

// Last returns the last failed attempt
func (e *ExhaustedError) Last() models.Attempt {
	if len(e.Attempts) == 0 {
		return models.Attempt{}
	}
	return e.Attempts[len(e.Attempts)-1]
}

// Identifiers returns the tried identifiers in order, one per tried variant
func (e *ExhaustedError) Identifiers() []string {
	out := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Identifier == "" {
			continue
		}
		out = append(out, a.Identifier)
	}
	return out
}

// Summary renders one line per attempt
func (e *ExhaustedError) Summary() string {
	var sb strings.Builder
	for i, a := range e.Attempts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, describe(a))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func describe(a models.Attempt) string {
	if a.Identifier == "" {
		return fmt.Sprintf("%s: %v", a.Stage, a.Err)
	}
	label := a.Identifier
	if a.Retrieval {
		label += "+retrieval"
	}
	return fmt.Sprintf("%s (%s): %v", label, a.Stage, a.Err)
}
