package attainment

import (
	"errors"
	"fmt"
	"strings"

	"coattainment-server-go/models"
)

// ErrMissingInput is matched by every *MissingInputError via errors.Is
var ErrMissingInput = errors.New("missing one or more required inputs")

// MissingInputError reports which of the four inputs were empty or absent.
// No partial result accompanies it.
type MissingInputError struct {
	Inputs []string
}

func (e *MissingInputError) Error() string {
	if len(e.Inputs) == 0 {
		return ErrMissingInput.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMissingInput, strings.Join(e.Inputs, ", "))
}

func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// MalformedValue describes a mark cell that did not parse as a number and was
// counted as 0. It is never returned as an error.
type MalformedValue struct {
	Exam   models.ExamType
	Record int // zero-based position in the exam's mark table
	Column string
	Raw    string
}

func (m MalformedValue) String() string {
	return fmt.Sprintf("%s record %d column %q: non-numeric value %q treated as 0", m.Exam, m.Record, m.Column, m.Raw)
}
