// Package release resolves fps-tracker release versions and constructs
// the per-target artifact URLs a release publishes.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// Repo is the canonical release repository.
	Repo = "forgemypcgit/FPStracker"
	// DefaultAPIBase is the release-listing API endpoint.
	DefaultAPIBase = "https://api.github.com"
	// DefaultBaseURL is where release assets are downloaded from.
	DefaultBaseURL = "https://github.com/" + Repo + "/releases/download"

	// VersionCustom is the sentinel returned when a mirror base URL is
	// configured without an explicit version. A self-hosted mirror is
	// deliberately not coupled to the canonical release-listing service.
	VersionCustom = "custom"

	// apiTimeout bounds the release-listing call. Version checks are
	// small JSON responses; they get a much shorter leash than artifact
	// downloads.
	apiTimeout = 15 * time.Second
)

// ErrVersionResolution indicates the latest release tag could not be
// determined.
var ErrVersionResolution = errors.New("version resolution failed")

// latestRelease is the subset of the release-listing response we decode.
type latestRelease struct {
	TagName string `json:"tag_name"`
}

// Resolver resolves the release version to install.
type Resolver struct {
	client  *http.Client
	apiBase string
	baseURL string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAPIBase overrides the release-listing endpoint (tests).
func WithAPIBase(base string) ResolverOption {
	return func(r *Resolver) { r.apiBase = strings.TrimRight(base, "/") }
}

// NewResolver creates a resolver. baseURL is the asset mirror override;
// empty means the canonical release location.
func NewResolver(baseURL string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  &http.Client{Timeout: apiTimeout},
		apiBase: DefaultAPIBase,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BaseURL returns the effective asset base URL.
func (r *Resolver) BaseURL() string {
	if r.baseURL == "" {
		return DefaultBaseURL
	}
	return r.baseURL
}

// Mirrored reports whether a non-canonical base URL is configured.
func (r *Resolver) Mirrored() bool {
	return r.baseURL != "" && r.baseURL != DefaultBaseURL
}

// Resolve determines the version tag to install.
//
// An explicit version is returned verbatim with no network call. A mirror
// without an explicit version resolves to the "custom" sentinel. Otherwise
// the latest-release endpoint is queried and its tag extracted.
func (r *Resolver) Resolve(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if r.Mirrored() {
		return VersionCustom, nil
	}

	url := fmt.Sprintf("%s/repos/%s/releases/latest", r.apiBase, Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrVersionResolution, err)
	}
	req.Header.Set("User-Agent", "fpstracker-install")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: query latest release: %v (set %s to pin a version)",
			ErrVersionResolution, err, "FPS_TRACKER_VERSION")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: latest release endpoint returned %d (set %s to pin a version)",
			ErrVersionResolution, resp.StatusCode, "FPS_TRACKER_VERSION")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrVersionResolution, err)
	}

	var rel latestRelease
	if err := json.Unmarshal(body, &rel); err != nil {
		return "", fmt.Errorf("%w: parse response: %v (set %s to pin a version)",
			ErrVersionResolution, err, "FPS_TRACKER_VERSION")
	}

	tag := strings.TrimSpace(rel.TagName)
	if tag == "" {
		return "", fmt.Errorf("%w: latest release has no tag (set %s to pin a version)",
			ErrVersionResolution, "FPS_TRACKER_VERSION")
	}

	return tag, nil
}
