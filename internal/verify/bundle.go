package verify

import (
	"context"
	"crypto"
	"fmt"
	"os"
	"time"

	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	sgverify "github.com/sigstore/sigstore-go/pkg/verify"
	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"
)

// BundleVerifier verifies sigstore bundles (.sigstore.json assets)
// against the release public key, entirely in process. Bundles carry the
// signature and its metadata in one document, so this path has no
// separate .sig download and no cosign bootstrap.
type BundleVerifier struct{}

// NewBundleVerifier creates an in-process sigstore bundle verifier.
func NewBundleVerifier() *BundleVerifier {
	return &BundleVerifier{}
}

// staticKey adapts a signature verifier into trusted key material with no
// validity window. Release keys are rotated by shipping a new installer,
// not by expiring the old key.
type staticKey struct {
	signature.Verifier
}

func (s *staticKey) ValidAtTime(t time.Time) bool { return true }

// Verify checks that the bundle at sigPath attests to exactly the bytes
// at archivePath under the public key at pubkeyPath.
func (v *BundleVerifier) Verify(ctx context.Context, archivePath, sigPath, pubkeyPath string) error {
	b, err := bundle.LoadJSONFromPath(sigPath)
	if err != nil {
		return fmt.Errorf("%w: load bundle: %v", ErrSignatureFailed, err)
	}

	pemBytes, err := os.ReadFile(pubkeyPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	pub, err := cryptoutils.UnmarshalPEMToPublicKey(pemBytes)
	if err != nil {
		return fmt.Errorf("%w: parse public key: %v", ErrSignatureFailed, err)
	}
	keyVerifier, err := signature.LoadVerifier(pub, crypto.SHA256)
	if err != nil {
		return fmt.Errorf("%w: load verifier: %v", ErrSignatureFailed, err)
	}

	material := root.NewTrustedPublicKeyMaterial(func(hint string) (root.TimeConstrainedVerifier, error) {
		return &staticKey{keyVerifier}, nil
	})

	// Key-signed bundles from our release workflow carry no transparency
	// log entry or observer timestamp to check against.
	sev, err := sgverify.NewSignedEntityVerifier(material, sgverify.WithNoObserverTimestamps())
	if err != nil {
		return fmt.Errorf("%w: configure verifier: %v", ErrSignatureFailed, err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	policy := sgverify.NewPolicy(sgverify.WithArtifact(archive), sgverify.WithKey())
	if _, err := sev.Verify(b, policy); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}
	return nil
}
