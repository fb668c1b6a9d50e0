package cache

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/dwalleck/ranch-hand/internal/cache/progress"
	"github.com/dwalleck/ranch-hand/internal/checksum"
	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/logger"
	"github.com/dwalleck/ranch-hand/internal/release"
)

const copyBufferSize = 32 * 1024

// Fetcher issues a GET through the certificate trust negotiator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// Populator downloads and verifies the artifact set for one k3s version.
type Populator struct {
	fetcher Fetcher
	fs      FileSystem
	logger  logger.Logger
	display *progress.Display
	baseURL string
}

// PopulatorOption customises Populator construction.
type PopulatorOption func(*Populator)

// WithFileSystem overrides the filesystem implementation.
func WithFileSystem(fs FileSystem) PopulatorOption {
	return func(p *Populator) {
		p.fs = fs
	}
}

// WithDisplay overrides the progress display.
func WithDisplay(d *progress.Display) PopulatorOption {
	return func(p *Populator) {
		p.display = d
	}
}

// WithBaseURL overrides the release asset base URL.
func WithBaseURL(url string) PopulatorOption {
	return func(p *Populator) {
		p.baseURL = url
	}
}

// NewPopulator constructs a Populator using the provided fetcher and logger.
func NewPopulator(fetcher Fetcher, log logger.Logger, opts ...PopulatorOption) *Populator {
	if log == nil {
		log = logger.NewStandardLogger()
	}

	p := &Populator{
		fetcher: fetcher,
		fs:      OSFileSystem{},
		logger:  log,
		display: progress.NewDisplay(os.Stdout, false),
		baseURL: DefaultReleasesBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Populate fills destDir with the artifact set for (version, arch) and
// verifies every downloaded file against the version's checksum manifest.
//
// The manifest is downloaded and parsed before the remaining artifacts are
// dispatched; the binary and image bundle then download concurrently, each
// verifying itself as soon as its own download completes. A failing task
// never cancels its siblings, so the report always covers every file.
func (p *Populator) Populate(ctx context.Context, version, arch, destDir string, policy Policy) (*Report, error) {
	if err := release.Validate(version); err != nil {
		return nil, err
	}

	if err := p.fs.MkdirAll(destDir, 0o755); err != nil {
		return nil, apperrors.SystemError(apperrors.CodeSystemGeneric,
			"failed to create cache directory", err).
			WithModule("cache").
			WithOperation("Populate").
			WithField("dir", destDir)
	}

	artifacts := DeriveArtifacts(p.baseURL, version, arch)

	manifestResult, manifest := p.fetchManifest(ctx, artifacts.Manifest, destDir)

	results := make([]FileResult, 3)
	results[0] = manifestResult

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		results[1] = p.runTask(ctx, artifacts.Binary, destDir, manifest)
	}()

	go func() {
		defer wg.Done()
		results[2] = p.runImageTask(ctx, artifacts.ImageCandidates, destDir, manifest)
	}()

	wg.Wait()

	return Aggregate(version, results, policy, p.logger), nil
}

// fetchManifest downloads and parses the checksum manifest. Parse failures
// are recorded on the manifest's own result so they surface as hard errors
// without aborting the sibling downloads.
func (p *Populator) fetchManifest(ctx context.Context, artifact Artifact, destDir string) (FileResult, *checksum.Manifest) {
	result := FileResult{Filename: artifact.Filename}

	path, err := p.download(ctx, artifact, destDir)
	if err != nil {
		result.DownloadErr = err
		result.VerifyErr = apperrors.IntegrityNotFound(artifact.Filename)
		return result, nil
	}
	result.Path = path

	text, err := os.ReadFile(path)
	if err != nil {
		result.DownloadErr = apperrors.SystemError(apperrors.CodeSystemGeneric,
			"failed to read checksum manifest", err).
			WithModule("cache").
			WithField("path", path)
		return result, nil
	}

	manifest, err := checksum.Parse(string(text))
	if err != nil {
		result.DownloadErr = err
		return result, nil
	}

	p.logger.Debug("Parsed %d checksum entries from %s", manifest.Len(), artifact.Filename)

	result.Verification, result.VerifyErr = p.verify(path, manifest)
	return result, manifest
}

// runTask downloads a single-candidate artifact and verifies it immediately.
func (p *Populator) runTask(ctx context.Context, artifact Artifact, destDir string, manifest *checksum.Manifest) FileResult {
	result := FileResult{Filename: artifact.Filename}

	path, err := p.download(ctx, artifact, destDir)
	if err != nil {
		result.DownloadErr = err
		return result
	}

	result.Path = path
	result.Verification, result.VerifyErr = p.verify(path, manifest)
	return result
}

// runImageTask resolves the image bundle's compression-format ambiguity:
// candidates are tried strictly in order and the first success wins. When
// every candidate fails, the last error is surfaced as an aggregate image
// download failure.
func (p *Populator) runImageTask(ctx context.Context, candidates []Artifact, destDir string, manifest *checksum.Manifest) FileResult {
	var lastErr error

	for _, artifact := range candidates {
		path, err := p.download(ctx, artifact, destDir)
		if err != nil {
			lastErr = err
			p.logger.Debug("Image bundle %s unavailable: %v", artifact.Filename, err)
			continue
		}

		result := FileResult{Filename: artifact.Filename, Path: path}
		result.Verification, result.VerifyErr = p.verify(path, manifest)
		return result
	}

	last := candidates[len(candidates)-1]
	return FileResult{
		Filename: last.Filename,
		DownloadErr: apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			"failed to download k3s images in any supported format", lastErr).
			WithModule("cache").
			WithOperation("runImageTask").
			WithField("artifact", KindImageBundle.String()),
	}
}

// download streams one artifact to destDir. Destinations that already exist
// with non-zero size short-circuit as successes with progress marked
// complete. Partial files are deleted on any mid-stream failure.
func (p *Populator) download(ctx context.Context, artifact Artifact, destDir string) (string, error) {
	dest := filepath.Join(destDir, artifact.Filename)
	task := p.display.Add(artifact.Filename)

	if info, err := p.fs.Stat(dest); err == nil && info.Size() > 0 {
		p.logger.Debug("%s already cached, skipping download", artifact.Filename)
		task.Complete(info.Size())
		return dest, nil
	}

	resp, err := p.fetcher.Fetch(ctx, artifact.URL)
	if err != nil {
		task.Fail("download failed")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		task.Fail("download failed")
		return "", apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			"download failed with unexpected status", nil).
			WithModule("cache").
			WithOperation("download").
			WithFields(apperrors.Metadata{
				"url":    artifact.URL,
				"status": resp.StatusCode,
			})
	}

	task.Start(resp.ContentLength)

	file, err := p.fs.Create(dest)
	if err != nil {
		task.Fail("cannot create file")
		return "", apperrors.SystemError(apperrors.CodeSystemGeneric,
			"failed to create local file", err).
			WithModule("cache").
			WithOperation("download").
			WithField("path", dest)
	}

	buf := make([]byte, copyBufferSize)
	_, copyErr := io.CopyBuffer(file, task.Reader(resp.Body), buf)
	closeErr := file.Close()

	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if removeErr := p.fs.Remove(dest); removeErr != nil {
			p.logger.Warn("Failed to clean up partial download %s: %v", dest, removeErr)
		}
		task.Fail("download interrupted")
		return "", apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			"failed to stream download to disk", copyErr).
			WithModule("cache").
			WithOperation("download").
			WithField("path", dest)
	}

	task.Complete(resp.ContentLength)
	return dest, nil
}

// verify classifies the downloaded file against the manifest. A missing
// manifest entry and a hash read failure both observe as Unverified; the
// recorded reason keeps the two kinds distinct for logging.
func (p *Populator) verify(path string, manifest *checksum.Manifest) (VerificationStatus, error) {
	if manifest == nil {
		return VerificationUnverified, apperrors.IntegrityNotFound(filepath.Base(path))
	}

	err := checksum.VerifyFile(path, manifest)
	if err == nil {
		return VerificationVerified, nil
	}

	if appErr, ok := apperrors.As(err); ok {
		switch appErr.Code {
		case apperrors.CodeIntegrityNotFound:
			return VerificationUnverified, err
		case apperrors.CodeIntegrityMismatch:
			return VerificationMismatch, err
		}
	}

	// Hash I/O failure: observably unverified, logged with its own reason.
	return VerificationUnverified, err
}
