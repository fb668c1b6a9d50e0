package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/logger"
	"golang.org/x/term"
)

// DefaultReleasesAPIURL lists recent k3s releases.
const DefaultReleasesAPIURL = "https://api.github.com/repos/k3s-io/k3s/releases"

// DefaultPerPage bounds how many recent releases are offered for selection.
const DefaultPerPage = 30

// Release mirrors the fields of the GitHub releases API this tool reads.
type Release struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
	Draft      bool   `json:"draft"`
}

// Stable reports whether the release is a finished, non-draft build.
func (r Release) Stable() bool {
	return !r.Prerelease && !r.Draft
}

// Fetcher issues a GET through the certificate trust negotiator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// Selector presents version tags for interactive selection.
type Selector interface {
	Select(versions []string) (string, error)
}

// Resolver obtains a usable k3s version, either from explicit input or by
// querying the release host and prompting for a choice.
type Resolver struct {
	fetcher    Fetcher
	logger     logger.Logger
	selector   Selector
	apiURL     string
	perPage    int
	isTerminal func() bool
}

// ResolverOption customises Resolver construction.
type ResolverOption func(*Resolver)

// WithSelector overrides the interactive version selector.
func WithSelector(s Selector) ResolverOption {
	return func(r *Resolver) {
		r.selector = s
	}
}

// WithAPIURL overrides the release listing endpoint.
func WithAPIURL(url string) ResolverOption {
	return func(r *Resolver) {
		r.apiURL = url
	}
}

// WithTerminalCheck overrides interactive terminal detection.
func WithTerminalCheck(fn func() bool) ResolverOption {
	return func(r *Resolver) {
		r.isTerminal = fn
	}
}

// NewResolver constructs a Resolver using the provided fetcher and logger.
func NewResolver(fetcher Fetcher, log logger.Logger, opts ...ResolverOption) *Resolver {
	if log == nil {
		log = logger.NewStandardLogger()
	}

	r := &Resolver{
		fetcher:  fetcher,
		logger:   log,
		selector: NewPromptSelector(),
		apiURL:   DefaultReleasesAPIURL,
		perPage:  DefaultPerPage,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve validates the explicit version when one is supplied, otherwise
// fetches recent stable releases and prompts for a selection. Every version
// that leaves this function has passed Validate.
func (r *Resolver) Resolve(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		if err := Validate(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	versions, err := r.fetchStable(ctx)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			"no stable k3s releases found", nil).WithModule("release")
	}

	if !r.isTerminal() {
		return "", apperrors.ValidationError(apperrors.CodeValidationVersion,
			"no version specified and no interactive terminal attached; pass an explicit version, e.g. 'ranch-hand cache populate "+versions[0]+"'", nil).
			WithModule("release")
	}

	chosen, err := r.selector.Select(versions)
	if err != nil {
		return "", apperrors.ValidationError(apperrors.CodeValidationGeneric,
			"version selection aborted", err).WithModule("release")
	}

	// Fetched tags are revalidated before any path construction.
	if err := Validate(chosen); err != nil {
		return "", err
	}

	return chosen, nil
}

func (r *Resolver) fetchStable(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s?per_page=%d", r.apiURL, r.perPage)
	r.logger.Debug("Fetching releases from %s", url)

	resp, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			fmt.Sprintf("release listing failed with status %d", resp.StatusCode), nil).
			WithModule("release").
			WithField("url", url)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, apperrors.FormatError("failed to decode release metadata", err).
			WithModule("release")
	}

	versions := make([]string, 0, len(releases))
	for _, rel := range releases {
		if rel.Stable() {
			versions = append(versions, rel.TagName)
		}
	}

	return versions, nil
}
