package cosign

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/forgemypcgit/fpstracker-install/internal/platform"
)

// DefaultVersion is the cosign release the bootstrapper downloads when
// none is on PATH and no override is set.
const DefaultVersion = "2.4.1"

// ErrNoPinnedDigest indicates the requested cosign version has no entry
// in the pinned digest table. Downloading an unverifiable verification
// tool defeats the point of verifying, so this is fatal unless the
// operator explicitly bypasses the check.
var ErrNoPinnedDigest = errors.New("no pinned digest for cosign release")

// pinData is the digest table shipped with the installer. Updated by the
// release workflow whenever the pinned cosign versions change.
//
//go:embed pins.yaml
var pinData []byte

// Pins maps cosign version → asset name → known-good SHA-256 digest.
type Pins struct {
	Versions map[string]map[string]string `yaml:"versions"`
}

// LoadPins parses the embedded digest table.
func LoadPins() (*Pins, error) {
	return ParsePins(pinData)
}

// ParsePins parses a digest table from YAML.
func ParsePins(data []byte) (*Pins, error) {
	var p Pins
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse cosign pins: %w", err)
	}
	if len(p.Versions) == 0 {
		return nil, fmt.Errorf("parse cosign pins: no versions")
	}
	return &p, nil
}

// Digest returns the pinned digest for one cosign release asset.
func (p *Pins) Digest(version, assetName string) (string, error) {
	assets, ok := p.Versions[version]
	if !ok {
		return "", fmt.Errorf("%w: version %s (set %s to bypass at your own risk)",
			ErrNoPinnedDigest, version, "FPS_TRACKER_SKIP_COSIGN_CHECKSUM=1")
	}
	digest, ok := assets[assetName]
	if !ok {
		return "", fmt.Errorf("%w: version %s asset %s", ErrNoPinnedDigest, version, assetName)
	}
	return digest, nil
}

// AssetName returns the cosign release asset name for a target triple.
func AssetName(triple platform.Triple) (string, error) {
	switch triple {
	case platform.TripleLinuxAMD64:
		return "cosign-linux-amd64", nil
	case platform.TripleDarwinAMD64:
		return "cosign-darwin-amd64", nil
	case platform.TripleDarwinARM64:
		return "cosign-darwin-arm64", nil
	case platform.TripleWindowsAMD64:
		return "cosign-windows-amd64.exe", nil
	default:
		return "", fmt.Errorf("no cosign release asset for %s", triple)
	}
}

// ReleaseURL returns the download URL for one cosign release asset.
func ReleaseURL(version, assetName string) string {
	return fmt.Sprintf("https://github.com/sigstore/cosign/releases/download/v%s/%s", version, assetName)
}
