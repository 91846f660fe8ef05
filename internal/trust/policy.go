// Package trust defines the installer's trust policy: the configuration
// that governs how strictly integrity and authenticity must be established
// before a release binary is installed.
//
// The policy is snapshotted from the FPS_TRACKER_* environment once at
// startup and passed by value into each pipeline stage, so the pipeline is
// testable with synthetic policies without touching the process environment.
package trust

import (
	"fmt"
	"os"
	"strings"
)

// Environment variable names recognized by the installer.
const (
	EnvVersion            = "FPS_TRACKER_VERSION"
	EnvInstallDir         = "FPS_TRACKER_INSTALL_DIR"
	EnvBaseURL            = "FPS_TRACKER_BASE_URL"
	EnvSkipSignature      = "FPS_TRACKER_SKIP_SIGNATURE_VERIFY"
	EnvRequireSignature   = "FPS_TRACKER_REQUIRE_SIGNATURE_VERIFY"
	EnvCosignPubkey       = "FPS_TRACKER_COSIGN_PUBKEY"
	EnvAllowInsecureHTTP  = "FPS_TRACKER_ALLOW_INSECURE_HTTP"
	EnvSkipPathUpdate     = "FPS_TRACKER_SKIP_PATH_UPDATE"
	EnvCosignVersion      = "FPS_TRACKER_COSIGN_VERSION"
	EnvSkipCosignChecksum = "FPS_TRACKER_SKIP_COSIGN_CHECKSUM"
)

// Policy holds the trust configuration for a single installer run.
// Note there is deliberately no switch to disable checksum verification:
// checksums are baseline hygiene, not an optional trust upgrade.
type Policy struct {
	// SkipSignatureVerify bypasses the signature branch entirely.
	SkipSignatureVerify bool
	// RequireSignatureVerify escalates missing signature assets to fatal.
	RequireSignatureVerify bool
	// CosignPubkeyPath is an operator-pinned public key path. When set it
	// takes precedence over keys published with the release or embedded
	// in the installer, and it must exist on disk.
	CosignPubkeyPath string
	// AllowInsecureHTTP permits plain-HTTP downloads from non-loopback
	// hosts. Intended for local integration testing only.
	AllowInsecureHTTP bool
	// SkipPathUpdate disables the user PATH mutation on Windows.
	SkipPathUpdate bool
	// CosignVersion overrides the pinned cosign release the bootstrapper
	// downloads when cosign is not already on PATH.
	CosignVersion string
	// SkipCosignChecksum bypasses the pinned-digest check for the cosign
	// download. Without it, an unpinned cosign version is fatal.
	SkipCosignChecksum bool
}

// FromEnv builds a Policy from the process environment.
func FromEnv() Policy {
	return Policy{
		SkipSignatureVerify:    envBool(EnvSkipSignature),
		RequireSignatureVerify: envBool(EnvRequireSignature),
		CosignPubkeyPath:       os.Getenv(EnvCosignPubkey),
		AllowInsecureHTTP:      envBool(EnvAllowInsecureHTTP),
		SkipPathUpdate:         envBool(EnvSkipPathUpdate),
		CosignVersion:          os.Getenv(EnvCosignVersion),
		SkipCosignChecksum:     envBool(EnvSkipCosignChecksum),
	}
}

// Validate reports configuration smells as warnings. Skip and require are
// mutually exclusive in effect; when both are set, skip wins, and the
// conflict is surfaced instead of silently falling through.
func (p Policy) Validate() []string {
	var warnings []string
	if p.SkipSignatureVerify && p.RequireSignatureVerify {
		warnings = append(warnings, fmt.Sprintf(
			"%s and %s are both set; skip takes precedence and signatures will NOT be verified",
			EnvSkipSignature, EnvRequireSignature))
	}
	if p.SkipCosignChecksum {
		warnings = append(warnings, fmt.Sprintf(
			"%s is set; the cosign download will not be checked against pinned digests", EnvSkipCosignChecksum))
	}
	return warnings
}

// VerifySignatures reports whether the signature branch runs at all.
func (p Policy) VerifySignatures() bool {
	return !p.SkipSignatureVerify
}

// envBool interprets an environment variable the way the original install
// scripts did: set and not "0"/"false" means enabled.
func envBool(name string) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}
