package cache

import (
	"fmt"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/logger"
)

// VerificationStatus is the tri-state outcome of checking one downloaded
// file against the checksum manifest.
type VerificationStatus int

const (
	// VerificationUnverified covers files the manifest has no entry for and
	// files whose digest could not be computed. Never an error.
	VerificationUnverified VerificationStatus = iota
	// VerificationVerified means the digest matched.
	VerificationVerified
	// VerificationMismatch means the digest differed from the manifest.
	VerificationMismatch
)

// String renders the status for display.
func (s VerificationStatus) String() string {
	switch s {
	case VerificationVerified:
		return "verified"
	case VerificationMismatch:
		return "mismatch"
	default:
		return "unchecked"
	}
}

// FileResult pairs one file's download outcome with its verification
// outcome. Verification fields are meaningful only when DownloadErr is nil.
type FileResult struct {
	Filename     string
	Path         string
	DownloadErr  error
	Verification VerificationStatus
	VerifyErr    error
}

// Policy states one rule per failure kind for the result aggregation.
type Policy struct {
	// ForceKeepMismatched downgrades digest mismatches to warnings and
	// keeps the file on disk. Download failures are never downgraded, and
	// unverified files are never errors regardless of this setting.
	ForceKeepMismatched bool
}

// Report aggregates every file's outcome pair for one populate run.
type Report struct {
	Version  string
	Results  []FileResult
	Warnings []string
	Errors   []error
}

// OK reports whether the run finished without hard errors.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err joins all hard errors into one multi-line failure, or returns nil when
// the run succeeded. The caller never sees a silent partial success.
func (r *Report) Err() error {
	agg := apperrors.NewAggregate(
		fmt.Sprintf("failed to populate cache for %s", r.Version), r.Errors)
	if agg == nil {
		return nil
	}
	return agg.WithModule("cache")
}

// Aggregate merges per-file results into a Report under the given policy:
// download failures are always hard errors; mismatches are hard errors
// unless the policy keeps them; unverified files are logged only.
func Aggregate(version string, results []FileResult, policy Policy, log logger.Logger) *Report {
	if log == nil {
		log = logger.NewStandardLogger()
	}

	report := &Report{
		Version: version,
		Results: results,
	}

	for _, result := range results {
		if result.DownloadErr != nil {
			report.Errors = append(report.Errors,
				fmt.Errorf("%s: %w", result.Filename, result.DownloadErr))
			continue
		}

		switch result.Verification {
		case VerificationVerified:
			log.Debug("%s verified", result.Filename)
		case VerificationMismatch:
			if policy.ForceKeepMismatched {
				warning := fmt.Sprintf("%s failed checksum verification, keeping anyway: %v",
					result.Filename, result.VerifyErr)
				report.Warnings = append(report.Warnings, warning)
				log.Warn(warning)
				continue
			}
			report.Errors = append(report.Errors,
				fmt.Errorf("%s: %w", result.Filename, result.VerifyErr))
		case VerificationUnverified:
			if apperrors.IsCategory(result.VerifyErr, apperrors.ErrCategoryIntegrity) {
				log.Info("%s has no checksum entry, skipping verification", result.Filename)
			} else {
				log.Warn("%s could not be verified: %v", result.Filename, result.VerifyErr)
			}
		}
	}

	return report
}
