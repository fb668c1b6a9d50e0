package errors

// Generic error code definitions used as sensible defaults across modules.
const (
	CodeSystemGeneric     = "SYS-000"
	CodeNetworkGeneric    = "NET-000"
	CodeNetworkRefused    = "NET-001"
	CodeNetworkTimeout    = "NET-002"
	CodeConfigGeneric     = "CFG-000"
	CodeValidationGeneric = "VAL-000"
	CodeValidationVersion = "VAL-001"
	CodeCertificate       = "CRT-000"
	CodeFormatGeneric     = "FMT-000"
	CodeIntegrityMismatch = "INT-001"
	CodeIntegrityNotFound = "INT-002"
	CodeAggregate         = "AGG-000"
)
