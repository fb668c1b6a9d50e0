package errors

import (
	"strings"
	"time"
)

// AggregateError collects failures from parallel tasks into one error so the
// caller sees every failing file with its specific reason, never a silent
// partial success.
type AggregateError struct {
	Message string
	Errs    []error
}

// NewAggregate wraps the provided errors. It returns nil when errs is empty
// so call sites can pass through collected slices unconditionally.
func NewAggregate(message string, errs []error) *AppError {
	if len(errs) == 0 {
		return nil
	}

	agg := &AggregateError{
		Message: message,
		Errs:    append([]error(nil), errs...),
	}

	return &AppError{
		Code:      CodeAggregate,
		Category:  ErrCategoryAggregate,
		Message:   message,
		Err:       agg,
		Timestamp: time.Now(),
		Metadata: Metadata{
			"count": len(errs),
		},
	}
}

// Error renders every collected failure on its own line.
func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, err := range e.Errs {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is/errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errs
}
