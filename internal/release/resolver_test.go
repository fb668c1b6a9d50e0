package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/logger"
)

// clientFetcher satisfies Fetcher with a plain HTTP client, no trust
// negotiation.
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

type fakeSelector struct {
	choice string
	called bool
}

func (s *fakeSelector) Select(versions []string) (string, error) {
	s.called = true
	return s.choice, nil
}

const releasesJSON = `[
	{"tag_name": "v1.30.0-rc1+k3s1", "prerelease": true, "draft": false},
	{"tag_name": "v1.29.4+k3s1", "prerelease": false, "draft": false},
	{"tag_name": "v1.29.3+k3s1", "prerelease": false, "draft": true},
	{"tag_name": "v1.28.9+k3s1", "prerelease": false, "draft": false}
]`

func newTestResolver(t *testing.T, body string, status int, opts ...ResolverOption) (*Resolver, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	opts = append([]ResolverOption{WithAPIURL(server.URL)}, opts...)
	fetcher := &clientFetcher{client: server.Client()}
	return NewResolver(fetcher, logger.NewMockLogger(), opts...), server
}

func TestResolveExplicitVersion(t *testing.T) {
	resolver := NewResolver(nil, logger.NewMockLogger())

	got, err := resolver.Resolve(context.Background(), "v1.29.4+k3s1")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "v1.29.4+k3s1" {
		t.Errorf("Resolve() = %s, want v1.29.4+k3s1", got)
	}
}

func TestResolveExplicitVersionInvalid(t *testing.T) {
	resolver := NewResolver(nil, logger.NewMockLogger())

	if _, err := resolver.Resolve(context.Background(), "../escape"); err == nil {
		t.Fatal("Resolve(../escape) expected error, got nil")
	}
}

func TestResolveInteractiveSelection(t *testing.T) {
	selector := &fakeSelector{choice: "v1.28.9+k3s1"}
	resolver, _ := newTestResolver(t, releasesJSON, http.StatusOK,
		WithSelector(selector),
		WithTerminalCheck(func() bool { return true }),
	)

	got, err := resolver.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if !selector.called {
		t.Error("selector was not invoked")
	}
	if got != "v1.28.9+k3s1" {
		t.Errorf("Resolve() = %s, want v1.28.9+k3s1", got)
	}
}

func TestResolveFiltersUnstableReleases(t *testing.T) {
	var offered []string
	selector := &fakeSelector{choice: "v1.29.4+k3s1"}
	resolver, _ := newTestResolver(t, releasesJSON, http.StatusOK,
		WithSelector(selectorFunc(func(versions []string) (string, error) {
			offered = versions
			return selector.Select(versions)
		})),
		WithTerminalCheck(func() bool { return true }),
	)

	if _, err := resolver.Resolve(context.Background(), ""); err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	want := []string{"v1.29.4+k3s1", "v1.28.9+k3s1"}
	if len(offered) != len(want) {
		t.Fatalf("offered %d versions %v, want %v", len(offered), offered, want)
	}
	for i := range want {
		if offered[i] != want[i] {
			t.Errorf("offered[%d] = %s, want %s", i, offered[i], want[i])
		}
	}
}

type selectorFunc func(versions []string) (string, error)

func (f selectorFunc) Select(versions []string) (string, error) {
	return f(versions)
}

func TestResolveNonInteractive(t *testing.T) {
	resolver, _ := newTestResolver(t, releasesJSON, http.StatusOK,
		WithTerminalCheck(func() bool { return false }),
	)

	_, err := resolver.Resolve(context.Background(), "")
	if err == nil {
		t.Fatal("Resolve() expected error without a terminal, got nil")
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("error type = %T, want *AppError", err)
	}
	if appErr.Code != apperrors.CodeValidationVersion {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.CodeValidationVersion)
	}
}

func TestResolveNoStableReleases(t *testing.T) {
	resolver, _ := newTestResolver(t, `[{"tag_name": "v1.30.0-rc1+k3s1", "prerelease": true, "draft": false}]`,
		http.StatusOK, WithTerminalCheck(func() bool { return true }))

	if _, err := resolver.Resolve(context.Background(), ""); err == nil {
		t.Fatal("Resolve() expected error with no stable releases, got nil")
	}
}

func TestResolveListingFailure(t *testing.T) {
	resolver, _ := newTestResolver(t, "rate limited", http.StatusForbidden,
		WithTerminalCheck(func() bool { return true }))

	_, err := resolver.Resolve(context.Background(), "")
	if err == nil {
		t.Fatal("Resolve() expected error on HTTP 403, got nil")
	}
	if !apperrors.IsCategory(err, apperrors.ErrCategoryNetwork) {
		t.Errorf("error category = %v, want NETWORK", err)
	}
}

func TestResolveRejectsMaliciousTag(t *testing.T) {
	resolver, _ := newTestResolver(t,
		`[{"tag_name": "../../escape", "prerelease": false, "draft": false}]`,
		http.StatusOK,
		WithSelector(&fakeSelector{choice: "../../escape"}),
		WithTerminalCheck(func() bool { return true }),
	)

	if _, err := resolver.Resolve(context.Background(), ""); err == nil {
		t.Fatal("Resolve() accepted a tag with traversal sequences")
	}
}

func TestReleaseStable(t *testing.T) {
	tests := []struct {
		name    string
		release Release
		want    bool
	}{
		{name: "stable", release: Release{TagName: "v1"}, want: true},
		{name: "prerelease", release: Release{TagName: "v1", Prerelease: true}, want: false},
		{name: "draft", release: Release{TagName: "v1", Draft: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.release.Stable(); got != tt.want {
				t.Errorf("Stable() = %v, want %v", got, tt.want)
			}
		})
	}
}
