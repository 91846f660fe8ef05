// Package testutil provides utilities for testing the installer in
// isolation.
package testutil

import (
	"os"
	"testing"

	"github.com/forgemypcgit/fpstracker-install/internal/trust"
)

// ClearInstallerEnv unsets every FPS_TRACKER_* variable for the duration
// of a test. Developer machines often have a version pin or a mirror URL
// exported; tests must not inherit them.
//
// t.Setenv registers the restore automatically, so callers don't need to
// clean up.
func ClearInstallerEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		trust.EnvVersion,
		trust.EnvInstallDir,
		trust.EnvBaseURL,
		trust.EnvSkipSignature,
		trust.EnvRequireSignature,
		trust.EnvCosignPubkey,
		trust.EnvAllowInsecureHTTP,
		trust.EnvSkipPathUpdate,
		trust.EnvCosignVersion,
		trust.EnvSkipCosignChecksum,
	} {
		// Setenv first so the original value is restored when the test
		// finishes, then unset so LookupEnv sees a clean environment.
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}
