package checksum

import (
	"strings"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
)

// Manifest holds an immutable mapping of filename to expected SHA-256 digest.
// A Manifest is built once per populate run and is safe for concurrent
// read-only use by every verification task.
type Manifest struct {
	digests map[string]string
}

// Parse reads sha256sum manifest text into a Manifest.
//
// Each non-empty, non-comment line must split into exactly two
// whitespace-separated fields: a 64-character hexadecimal digest and a
// filename. A leading `*` on the filename (binary-mode marker) is stripped.
// Duplicate filenames overwrite earlier entries.
func Parse(text string) (*Manifest, error) {
	digests := make(map[string]string)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, apperrors.FormatError("invalid checksum line, expected 'digest filename'", nil).
				WithField("line", line)
		}

		digest := strings.ToLower(fields[0])
		if !isHexDigest(digest) {
			return nil, apperrors.FormatError("invalid SHA256 digest: "+fields[0], nil).
				WithField("line", line)
		}

		filename := strings.TrimPrefix(fields[1], "*")
		digests[filename] = digest
	}

	return &Manifest{digests: digests}, nil
}

// Lookup returns the expected digest for the given filename.
func (m *Manifest) Lookup(filename string) (string, bool) {
	if m == nil {
		return "", false
	}
	digest, ok := m.digests[filename]
	return digest, ok
}

// Len returns the number of manifest entries.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.digests)
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
