package errors

// ErrorCategory groups related application errors for unified handling.
type ErrorCategory string

const (
	ErrCategorySystem      ErrorCategory = "SYSTEM"
	ErrCategoryNetwork     ErrorCategory = "NETWORK"
	ErrCategoryConfig      ErrorCategory = "CONFIG"
	ErrCategoryValidation  ErrorCategory = "VALIDATION"
	ErrCategoryCertificate ErrorCategory = "CERTIFICATE"
	ErrCategoryFormat      ErrorCategory = "FORMAT"
	ErrCategoryIntegrity   ErrorCategory = "INTEGRITY"
	ErrCategoryAggregate   ErrorCategory = "AGGREGATE"
)
