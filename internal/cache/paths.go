package cache

import (
	"os"
	"path/filepath"
	"runtime"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/release"
)

// Root returns the base cache directory for Rancher Desktop k3s files.
//
// Platform-specific locations:
//   - Windows: %LOCALAPPDATA%\rancher-desktop\cache\k3s
//   - macOS:   ~/Library/Caches/rancher-desktop/k3s
//   - Linux:   ~/.cache/rancher-desktop/k3s
func Root() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", apperrors.SystemError(apperrors.CodeSystemGeneric,
			"could not determine cache directory for this platform", err).
			WithModule("cache")
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(base, "rancher-desktop", "cache", "k3s"), nil
	}
	return filepath.Join(base, "rancher-desktop", "k3s"), nil
}

// VersionDir returns the cache directory for a specific k3s version. The
// version must pass validation before it touches the filesystem.
func VersionDir(root, version string) (string, error) {
	if err := release.Validate(version); err != nil {
		return "", err
	}
	return filepath.Join(root, version), nil
}

// Arch returns the k3s architecture string for the running process.
func Arch() string {
	switch runtime.GOARCH {
	case "arm64":
		return "arm64"
	default:
		return "amd64"
	}
}

// BinaryName returns the k3s binary filename for the given architecture.
func BinaryName(arch string) string {
	if arch == "arm64" {
		return "k3s-arm64"
	}
	return "k3s"
}
