package verify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// PGPVerifier verifies armored or binary detached PGP signatures against
// a keyring file. Releases signed before the cosign migration ship .asc
// signatures; this keeps them installable.
type PGPVerifier struct{}

// NewPGPVerifier creates a PGP signature verifier.
func NewPGPVerifier() *PGPVerifier {
	return &PGPVerifier{}
}

// Verify checks that sigPath is a valid detached signature over
// archivePath by a key in the keyring at pubkeyPath.
func (v *PGPVerifier) Verify(ctx context.Context, archivePath, sigPath, pubkeyPath string) error {
	keyring, err := loadKeyring(pubkeyPath)
	if err != nil {
		return fmt.Errorf("%w: load keyring: %v", ErrSignatureFailed, err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Verify signature (try armored first)
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archiveFile, sigFile, nil)
	if err != nil {
		// Try non-armored signature
		archiveFile.Seek(0, io.SeekStart)
		sigFile.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}

	return nil
}

// loadKeyring reads an armored or binary PGP keyring from disk.
func loadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		keyringFile.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}
