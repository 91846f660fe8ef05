package release

import (
	"fmt"

	"github.com/forgemypcgit/fpstracker-install/internal/platform"
)

// Artifacts holds the URLs for everything a release publishes per target
// triple. Signature, public key, and bundle assets are optional on the
// publishing side; the trust policy decides what their absence means.
type Artifacts struct {
	ArchiveName string

	ArchiveURL   string // fps-tracker-{triple}.tar.gz / .zip
	ChecksumURL  string // {archive}.sha256
	ManifestURL  string // SHA256SUMS (consolidated fallback)
	SignatureURL string // {archive}.sig
	PubkeyURL    string // cosign.pub
	BundleURL    string // {archive}.sigstore.json
}

// ArtifactsFor constructs artifact URLs for a version and triple.
//
// Canonical releases nest assets under the version tag. A custom mirror
// (version sentinel "custom") serves assets directly from its base URL,
// because mirrors snapshot exactly one release.
func ArtifactsFor(baseURL, version string, triple platform.Triple) Artifacts {
	name := fmt.Sprintf("fps-tracker-%s%s", triple, triple.ArchiveExt())

	base := baseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if version != VersionCustom {
		base = fmt.Sprintf("%s/%s", base, version)
	}

	return Artifacts{
		ArchiveName:  name,
		ArchiveURL:   fmt.Sprintf("%s/%s", base, name),
		ChecksumURL:  fmt.Sprintf("%s/%s.sha256", base, name),
		ManifestURL:  fmt.Sprintf("%s/SHA256SUMS", base),
		SignatureURL: fmt.Sprintf("%s/%s.sig", base, name),
		PubkeyURL:    fmt.Sprintf("%s/cosign.pub", base),
		BundleURL:    fmt.Sprintf("%s/%s.sigstore.json", base, name),
	}
}
