package release

import (
	"strings"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
)

// Validate rejects version strings that could escape the cache directory
// when used to construct filesystem paths. Anything else, including tags
// with `+` and `.`, is accepted.
func Validate(version string) error {
	if version == "" {
		return apperrors.ValidationError(apperrors.CodeValidationVersion,
			"version must not be empty", nil).WithModule("release")
	}

	if strings.ContainsAny(version, "/\\\x00") || strings.Contains(version, "..") {
		return apperrors.ValidationError(apperrors.CodeValidationVersion,
			"version contains path separators or traversal sequences: "+version, nil).
			WithModule("release").
			WithField("version", version)
	}

	return nil
}
