package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/pkg/errors"
)

const hashBufferSize = 32 * 1024

// Sum computes the hex-encoded SHA-256 digest of the reader's content in
// fixed-size chunks, so memory use is independent of file size.
func Sum(r io.Reader) (string, error) {
	hasher := sha256.New()
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(hasher, r, buf); err != nil {
		return "", errors.Wrap(err, "failed to read data for checksum")
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SumFile computes the hex-encoded SHA-256 digest of the file at path.
func SumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer file.Close()

	return Sum(file)
}

// VerifyFile compares the file's digest against the manifest entry keyed by
// the file's base name. A missing manifest entry yields an INTEGRITY error
// with code IntegrityNotFound, which callers must not conflate with a
// mismatch.
func VerifyFile(path string, manifest *Manifest) error {
	filename := filepath.Base(path)

	expected, ok := manifest.Lookup(filename)
	if !ok {
		return apperrors.IntegrityNotFound(filename)
	}

	return VerifyDigest(path, expected)
}

// VerifyDigest compares the file's digest against the expected value,
// case-insensitively.
func VerifyDigest(path, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))

	actual, err := SumFile(path)
	if err != nil {
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to hash file", err).
			WithModule("checksum").
			WithOperation("VerifyDigest").
			WithField("path", path)
	}

	if actual != expected {
		return apperrors.IntegrityMismatch(filepath.Base(path), expected, actual)
	}

	return nil
}
