package services

import (
	"fmt"
	"strings"
)

// ValidationError reports problems found before anything was written.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation failed: " + e.Problems[0]
	}
	return fmt.Sprintf("validation failed (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// PartialError is returned when a multi-record write stored some records
// and failed on others. Err is the first failure.
type PartialError struct {
	Succeeded []string
	Failed    int
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d of %d writes failed: %v", e.Failed, e.Failed+len(e.Succeeded), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
