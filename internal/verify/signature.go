package verify

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
)

// ErrSignatureFailed indicates a signature did not verify. It is always
// fatal; installation never proceeds past it.
var ErrSignatureFailed = errors.New("signature verification failed")

// releasePubkey is the fps-tracker release signing public key embedded at
// compile time. An operator override or a key fetched with the release
// takes precedence over it.
//
//go:embed keys/cosign.pub
var releasePubkey []byte

// EmbeddedPubkey returns the embedded release signing key (PEM).
func EmbeddedPubkey() []byte {
	return releasePubkey
}

// SignatureVerifier confirms that a detached signature covers exactly the
// archive bytes, using the supplied public key. Implementations: the
// bootstrapped cosign CLI, the in-process key verifier, the in-process
// bundle verifier, and a stub for tests.
type SignatureVerifier interface {
	Verify(ctx context.Context, archivePath, sigPath, pubkeyPath string) error
}

// StubVerifier is a SignatureVerifier returning a canned result, for
// wiring pipeline tests without real signing material.
type StubVerifier struct {
	Err   error
	Calls int
}

// Verify records the call and returns the canned error.
func (s *StubVerifier) Verify(ctx context.Context, archivePath, sigPath, pubkeyPath string) error {
	s.Calls++
	return s.Err
}

// ResolvePubkey applies the public key resolution order: an operator
// override path (which must exist, else fatal), then a key downloaded
// with the release, then the embedded key written out to fallbackPath.
// It returns the path of the key to use.
func ResolvePubkey(overridePath, downloadedPath, fallbackPath string) (string, error) {
	if overridePath != "" {
		if _, err := os.Stat(overridePath); err != nil {
			return "", fmt.Errorf("pinned public key %s: %w", overridePath, err)
		}
		return overridePath, nil
	}
	if downloadedPath != "" {
		if _, err := os.Stat(downloadedPath); err == nil {
			return downloadedPath, nil
		}
	}
	if err := os.WriteFile(fallbackPath, releasePubkey, 0644); err != nil {
		return "", fmt.Errorf("write embedded public key: %w", err)
	}
	return fallbackPath, nil
}
