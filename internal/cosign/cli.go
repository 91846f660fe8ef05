// Package cosign bootstraps the cosign CLI and shells out to it for
// signature verification. The bootstrapped binary is itself checked
// against a pinned digest table before it is trusted to verify anything.
package cosign

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/forgemypcgit/fpstracker-install/internal/verify"
)

// CLIVerifier verifies detached signatures by running `cosign
// verify-blob` as a subprocess.
type CLIVerifier struct {
	// BinaryPath is the cosign executable to run. Usually the result of
	// Ensure.
	BinaryPath string
}

// NewCLIVerifier creates a verifier around a cosign executable.
func NewCLIVerifier(binaryPath string) *CLIVerifier {
	return &CLIVerifier{BinaryPath: binaryPath}
}

// Verify runs `cosign verify-blob --key pubkeyPath --signature sigPath
// archivePath` and maps a non-zero exit onto ErrSignatureFailed.
func (v *CLIVerifier) Verify(ctx context.Context, archivePath, sigPath, pubkeyPath string) error {
	for _, path := range []string{archivePath, sigPath, pubkeyPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cosign verify-blob: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, v.BinaryPath, "verify-blob",
		"--key", pubkeyPath,
		"--signature", sigPath,
		archivePath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: cosign verify-blob: %v: %s", verify.ErrSignatureFailed, err, output)
	}
	return nil
}
