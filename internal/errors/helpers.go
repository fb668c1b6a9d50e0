package errors

import "time"

// New creates a generic AppError with the supplied metadata.
func New(code string, category ErrorCategory, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		Category:  category,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// SystemError creates a SYSTEM category error instance.
func SystemError(code, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NetworkError creates a NETWORK category error instance.
func NetworkError(code, message string, err error) *AppError {
	return &AppError{
		Code:        code,
		Category:    ErrCategoryNetwork,
		Message:     message,
		Err:         err,
		Recoverable: true,
		Timestamp:   time.Now(),
	}
}

// ConfigError creates a CONFIG category error instance.
func ConfigError(code, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		Category:  ErrCategoryConfig,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// ValidationError creates a VALIDATION category error instance.
func ValidationError(code, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		Category:  ErrCategoryValidation,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// CertificateError creates a CERTIFICATE category error carrying the failing
// domain and a human-readable reason. Certificate errors are recoverable
// exactly once, through interactive consent.
func CertificateError(domain, reason string, err error) *AppError {
	return &AppError{
		Code:        CodeCertificate,
		Category:    ErrCategoryCertificate,
		Message:     "certificate validation failed for " + domain + ": " + reason,
		Err:         err,
		Recoverable: true,
		Timestamp:   time.Now(),
		Metadata: Metadata{
			"domain": domain,
			"reason": reason,
		},
	}
}

// FormatError creates a FORMAT category error instance.
func FormatError(message string, err error) *AppError {
	return &AppError{
		Code:      CodeFormatGeneric,
		Category:  ErrCategoryFormat,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// IntegrityMismatch creates an INTEGRITY error for a digest mismatch,
// recording both the expected and the computed digest.
func IntegrityMismatch(filename, expected, actual string) *AppError {
	return &AppError{
		Code:      CodeIntegrityMismatch,
		Category:  ErrCategoryIntegrity,
		Message:   "checksum mismatch for " + filename + ": expected " + expected + ", got " + actual,
		Timestamp: time.Now(),
		Metadata: Metadata{
			"filename": filename,
			"expected": expected,
			"actual":   actual,
		},
	}
}

// IntegrityNotFound creates an INTEGRITY error for a file the checksum
// manifest has no entry for. Callers must not conflate it with a mismatch.
func IntegrityNotFound(filename string) *AppError {
	return &AppError{
		Code:      CodeIntegrityNotFound,
		Category:  ErrCategoryIntegrity,
		Message:   "no checksum found for " + filename,
		Timestamp: time.Now(),
		Metadata: Metadata{
			"filename": filename,
		},
	}
}
