package verify

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"
	"github.com/sigstore/sigstore/pkg/signature/options"
)

// KeyVerifier verifies cosign-style detached signatures in process: the
// .sig asset is a (usually base64-encoded) signature over the archive
// bytes, checked against a PEM public key. It needs no cosign binary,
// which keeps mirrors and air-gapped installs out of the tool bootstrap.
type KeyVerifier struct{}

// NewKeyVerifier creates an in-process signature verifier.
func NewKeyVerifier() *KeyVerifier {
	return &KeyVerifier{}
}

// Verify checks that sigPath covers exactly the bytes at archivePath
// under the public key at pubkeyPath.
func (v *KeyVerifier) Verify(ctx context.Context, archivePath, sigPath, pubkeyPath string) error {
	pemBytes, err := os.ReadFile(pubkeyPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	pub, err := cryptoutils.UnmarshalPEMToPublicKey(pemBytes)
	if err != nil {
		return fmt.Errorf("%w: parse public key: %v", ErrSignatureFailed, err)
	}
	verifier, err := signature.LoadVerifier(pub, crypto.SHA256)
	if err != nil {
		return fmt.Errorf("%w: load verifier: %v", ErrSignatureFailed, err)
	}

	sigBytes, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	// cosign sign-blob emits base64; accept raw bytes as well
	if decoded, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(sigBytes))); decErr == nil {
		sigBytes = decoded
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	if err := verifier.VerifySignature(bytes.NewReader(sigBytes), archive, options.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}
	return nil
}
