package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dwalleck/ranch-hand/internal/cache/progress"
	"github.com/dwalleck/ranch-hand/internal/checksum"
	"github.com/dwalleck/ranch-hand/internal/logger"
)

const testVersion = "v1.30.2+k3s1"

type clientFetcher struct {
	client *http.Client
}

func (f *clientFetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return f.client.Do(req)
}

// artifactServer serves release assets by base filename and records which
// assets were requested, in order.
type artifactServer struct {
	mu       sync.Mutex
	requests []string
	files    map[string]string
}

func (s *artifactServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Base(r.URL.Path)

	s.mu.Lock()
	s.requests = append(s.requests, name)
	content, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	io.WriteString(w, content)
}

func (s *artifactServer) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func digestOf(t *testing.T, content string) string {
	t.Helper()
	digest, err := checksum.Sum(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	return digest
}

func newTestPopulator(t *testing.T, files map[string]string) (*Populator, *artifactServer) {
	t.Helper()
	backend := &artifactServer{files: files}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	p := NewPopulator(&clientFetcher{client: server.Client()}, logger.NewMockLogger(),
		WithBaseURL(server.URL),
		WithDisplay(progress.NewDisplay(io.Discard, true)),
	)
	return p, backend
}

func TestPopulateHappyPath(t *testing.T) {
	binContent := "k3s binary bits"
	imgContent := "airgap image bits"
	manifest := digestOf(t, binContent) + "  k3s\n" +
		digestOf(t, imgContent) + "  k3s-airgap-images-amd64.tar.zst\n"

	p, _ := newTestPopulator(t, map[string]string{
		"sha256sum-amd64.txt":             manifest,
		"k3s":                             binContent,
		"k3s-airgap-images-amd64.tar.zst": imgContent,
	})

	destDir := t.TempDir()
	report, err := p.Populate(context.Background(), testVersion, "amd64", destDir, Policy{})
	if err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("OK() = false, errors: %v", report.Errors)
	}

	byName := make(map[string]FileResult)
	for _, result := range report.Results {
		byName[result.Filename] = result
	}

	if got := byName["k3s"].Verification; got != VerificationVerified {
		t.Errorf("binary verification = %s, want verified", got)
	}
	if got := byName["k3s-airgap-images-amd64.tar.zst"].Verification; got != VerificationVerified {
		t.Errorf("image verification = %s, want verified", got)
	}
	// The manifest has no entry for itself, so it observes as unchecked.
	if got := byName["sha256sum-amd64.txt"].Verification; got != VerificationUnverified {
		t.Errorf("manifest verification = %s, want unchecked", got)
	}

	for _, name := range []string{"sha256sum-amd64.txt", "k3s", "k3s-airgap-images-amd64.tar.zst"} {
		if _, err := os.Stat(filepath.Join(destDir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}
}

func TestPopulateImageFormatFallback(t *testing.T) {
	imgContent := "plain tar bits"
	manifest := digestOf(t, imgContent) + "  k3s-airgap-images-amd64.tar\n" +
		digestOf(t, "bin") + "  k3s\n"

	p, backend := newTestPopulator(t, map[string]string{
		"sha256sum-amd64.txt":         manifest,
		"k3s":                         "bin",
		"k3s-airgap-images-amd64.tar": imgContent,
	})

	report, err := p.Populate(context.Background(), testVersion, "amd64", t.TempDir(), Policy{})
	if err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("OK() = false, errors: %v", report.Errors)
	}

	var imageResult FileResult
	for _, result := range report.Results {
		if strings.Contains(result.Filename, "airgap") {
			imageResult = result
		}
	}
	if imageResult.Filename != "k3s-airgap-images-amd64.tar" {
		t.Errorf("image filename = %s, want the .tar fallback", imageResult.Filename)
	}
	if imageResult.Verification != VerificationVerified {
		t.Errorf("image verification = %s, want verified", imageResult.Verification)
	}

	// Candidates must have been tried most-compressed first.
	var attempts []string
	for _, name := range backend.requested() {
		if strings.Contains(name, "airgap") {
			attempts = append(attempts, name)
		}
	}
	wantOrder := []string{
		"k3s-airgap-images-amd64.tar.zst",
		"k3s-airgap-images-amd64.tar.gz",
		"k3s-airgap-images-amd64.tar",
	}
	if len(attempts) != len(wantOrder) {
		t.Fatalf("image attempts = %v, want %v", attempts, wantOrder)
	}
	for i := range wantOrder {
		if attempts[i] != wantOrder[i] {
			t.Errorf("attempt[%d] = %s, want %s", i, attempts[i], wantOrder[i])
		}
	}
}

func TestPopulateAllImageFormatsFail(t *testing.T) {
	manifest := digestOf(t, "bin") + "  k3s\n"

	p, _ := newTestPopulator(t, map[string]string{
		"sha256sum-amd64.txt": manifest,
		"k3s":                 "bin",
	})

	report, err := p.Populate(context.Background(), testVersion, "amd64", t.TempDir(), Policy{})
	if err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}

	reportErr := report.Err()
	if reportErr == nil {
		t.Fatal("Err() = nil, want image download failure")
	}
	if !strings.Contains(reportErr.Error(), "k3s-airgap-images-amd64.tar") {
		t.Errorf("Err() = %q, does not name the image bundle", reportErr)
	}
}

func TestPopulateChecksumMismatch(t *testing.T) {
	imgContent := "image bits"
	manifest := strings.Repeat("0", 64) + "  k3s\n" +
		digestOf(t, imgContent) + "  k3s-airgap-images-amd64.tar.zst\n"
	files := map[string]string{
		"sha256sum-amd64.txt":             manifest,
		"k3s":                             "tampered binary",
		"k3s-airgap-images-amd64.tar.zst": imgContent,
	}

	t.Run("fatal without force", func(t *testing.T) {
		p, _ := newTestPopulator(t, files)

		report, err := p.Populate(context.Background(), testVersion, "amd64", t.TempDir(), Policy{})
		if err != nil {
			t.Fatalf("Populate() unexpected error: %v", err)
		}

		reportErr := report.Err()
		if reportErr == nil {
			t.Fatal("Err() = nil, want checksum mismatch")
		}
		if !strings.Contains(reportErr.Error(), "k3s:") {
			t.Errorf("Err() = %q, does not name the binary", reportErr)
		}
	})

	t.Run("kept with force", func(t *testing.T) {
		p, _ := newTestPopulator(t, files)
		destDir := t.TempDir()

		report, err := p.Populate(context.Background(), testVersion, "amd64", destDir,
			Policy{ForceKeepMismatched: true})
		if err != nil {
			t.Fatalf("Populate() unexpected error: %v", err)
		}
		if !report.OK() {
			t.Fatalf("OK() = false with force, errors: %v", report.Errors)
		}
		if len(report.Warnings) != 1 {
			t.Errorf("warnings = %d, want 1", len(report.Warnings))
		}
		// The mismatched file stays on disk.
		if _, err := os.Stat(filepath.Join(destDir, "k3s")); err != nil {
			t.Errorf("mismatched binary was removed: %v", err)
		}
	})
}

func TestPopulateSkipsExistingFiles(t *testing.T) {
	binContent := "cached binary"
	manifest := digestOf(t, binContent) + "  k3s\n" +
		digestOf(t, "img") + "  k3s-airgap-images-amd64.tar.zst\n"

	p, backend := newTestPopulator(t, map[string]string{
		"sha256sum-amd64.txt":             manifest,
		"k3s-airgap-images-amd64.tar.zst": "img",
	})

	destDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(destDir, "k3s"), []byte(binContent), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	report, err := p.Populate(context.Background(), testVersion, "amd64", destDir, Policy{})
	if err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("OK() = false, errors: %v", report.Errors)
	}

	for _, name := range backend.requested() {
		if name == "k3s" {
			t.Error("binary was re-downloaded despite being cached")
		}
	}

	// The pre-existing file still gets verified.
	for _, result := range report.Results {
		if result.Filename == "k3s" && result.Verification != VerificationVerified {
			t.Errorf("cached binary verification = %s, want verified", result.Verification)
		}
	}
}

func TestPopulateManifestUnavailable(t *testing.T) {
	p, backend := newTestPopulator(t, map[string]string{
		"k3s":                             "bin",
		"k3s-airgap-images-amd64.tar.zst": "img",
	})

	report, err := p.Populate(context.Background(), testVersion, "amd64", t.TempDir(), Policy{})
	if err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}

	if report.Err() == nil {
		t.Fatal("Err() = nil, want manifest download failure")
	}

	// Sibling downloads still ran and observed as unchecked.
	requested := strings.Join(backend.requested(), " ")
	if !strings.Contains(requested, "k3s") {
		t.Error("binary was not attempted after the manifest failed")
	}
	for _, result := range report.Results {
		if result.DownloadErr == nil && result.Verification != VerificationUnverified {
			t.Errorf("%s verification = %s, want unchecked without a manifest",
				result.Filename, result.Verification)
		}
	}
}

func TestPopulateCorruptManifest(t *testing.T) {
	p, _ := newTestPopulator(t, map[string]string{
		"sha256sum-amd64.txt":             "not a manifest at all",
		"k3s":                             "bin",
		"k3s-airgap-images-amd64.tar.zst": "img",
	})

	report, err := p.Populate(context.Background(), testVersion, "amd64", t.TempDir(), Policy{})
	if err != nil {
		t.Fatalf("Populate() unexpected error: %v", err)
	}
	if report.Err() == nil {
		t.Fatal("Err() = nil, want manifest parse failure")
	}
}

func TestPopulateRejectsInvalidVersion(t *testing.T) {
	p, _ := newTestPopulator(t, nil)

	if _, err := p.Populate(context.Background(), "../escape", "amd64", t.TempDir(), Policy{}); err == nil {
		t.Fatal("Populate(../escape) expected error, got nil")
	}
}
