package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dwalleck/ranch-hand/internal/checksum"
	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
)

// FileStatus reports one cached file's verification state.
type FileStatus struct {
	Name   string
	Size   int64
	Status VerificationStatus
}

// VersionInfo describes one cached version directory.
type VersionInfo struct {
	Version string
	Files   []FileStatus
}

// List enumerates the cached versions under root and verifies each file
// read-only against the version's own checksum manifest. Files without a
// manifest entry, and files that cannot be hashed, report as unchecked.
func List(root string) ([]VersionInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.SystemError(apperrors.CodeSystemGeneric,
			"failed to read cache directory", err).
			WithModule("cache").
			WithField("dir", root)
	}

	var versions []VersionInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		versions = append(versions, listVersion(root, entry.Name()))
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})

	return versions, nil
}

func listVersion(root, version string) VersionInfo {
	dir := filepath.Join(root, version)
	info := VersionInfo{Version: version}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return info
	}

	manifest := loadManifest(dir, entries)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		status := FileStatus{Name: entry.Name()}
		if fi, err := entry.Info(); err == nil {
			status.Size = fi.Size()
		}
		status.Status = fileStatus(filepath.Join(dir, entry.Name()), manifest)
		info.Files = append(info.Files, status)
	}

	return info
}

func loadManifest(dir string, entries []os.DirEntry) *checksum.Manifest {
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "sha256sum-") || !strings.HasSuffix(name, ".txt") {
			continue
		}

		text, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil
		}
		manifest, err := checksum.Parse(string(text))
		if err != nil {
			return nil
		}
		return manifest
	}
	return nil
}

func fileStatus(path string, manifest *checksum.Manifest) VerificationStatus {
	if manifest == nil {
		return VerificationUnverified
	}

	err := checksum.VerifyFile(path, manifest)
	if err == nil {
		return VerificationVerified
	}

	if appErr, ok := apperrors.As(err); ok && appErr.Code == apperrors.CodeIntegrityMismatch {
		return VerificationMismatch
	}

	return VerificationUnverified
}
