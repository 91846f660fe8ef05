// Package installer orchestrates the fps-tracker install pipeline:
// resolve target and version, download the archive and its trust
// material, verify, extract, and place the binary. Any failure aborts
// the run; the temp workdir is removed on every exit path.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/forgemypcgit/fpstracker-install/internal/cosign"
	"github.com/forgemypcgit/fpstracker-install/internal/download"
	"github.com/forgemypcgit/fpstracker-install/internal/extract"
	"github.com/forgemypcgit/fpstracker-install/internal/pathenv"
	"github.com/forgemypcgit/fpstracker-install/internal/platform"
	"github.com/forgemypcgit/fpstracker-install/internal/release"
	"github.com/forgemypcgit/fpstracker-install/internal/trust"
	"github.com/forgemypcgit/fpstracker-install/internal/ui"
	"github.com/forgemypcgit/fpstracker-install/internal/verify"
)

// artifactTimeout bounds each artifact download. Release archives are a
// few tens of megabytes; API calls get their own shorter timeout inside
// the resolver.
const artifactTimeout = 5 * time.Minute

// Options holds per-invocation overrides.
type Options struct {
	// Version is an explicit release tag. Empty means resolve latest
	// (or the "custom" sentinel when BaseURL points at a mirror).
	Version string
	// InstallDir is where the binary lands. Empty means DefaultInstallDir.
	InstallDir string
	// BaseURL overrides the canonical release download location.
	BaseURL string
}

// Result reports what an install run did.
type Result struct {
	Version           string
	Triple            platform.Triple
	BinaryPath        string
	SignatureVerified bool
	PathUpdated       bool
	Warnings          []string
}

// Config wires the pipeline's collaborators. Zero values get working
// defaults; tests swap in stubs.
type Config struct {
	Policy   trust.Policy
	Logger   ui.Logger
	Client   *download.Client
	Detector platform.Detector
	// Resolver overrides version resolution (tests point it at a fake
	// release API).
	Resolver *release.Resolver
	// Verifier overrides signature verifier selection entirely.
	Verifier verify.SignatureVerifier
	// EnsureTool acquires the cosign executable for subprocess
	// verification. Defaults to the pinned-digest bootstrapper.
	EnsureTool func(ctx context.Context, policy trust.Policy, dir string) (string, error)
	// UpdatePath mutates the durable user PATH. Defaults to the
	// platform implementation.
	UpdatePath func(dir string) (bool, error)
}

// Manager runs the install pipeline.
type Manager struct {
	cfg Config
}

// NewManager creates a Manager, filling in default collaborators.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = ui.Noop()
	}
	if cfg.Client == nil {
		cfg.Client = download.NewClient(
			download.WithTimeout(artifactTimeout),
			download.WithInsecureHTTP(cfg.Policy.AllowInsecureHTTP),
		)
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.NewDetector()
	}
	if cfg.EnsureTool == nil {
		cfg.EnsureTool = func(ctx context.Context, policy trust.Policy, dir string) (string, error) {
			b, err := cosign.NewBootstrapper(
				cosign.WithClient(cfg.Client),
				cosign.WithLogger(cfg.Logger),
			)
			if err != nil {
				return "", err
			}
			return b.Ensure(ctx, policy, dir)
		}
	}
	if cfg.UpdatePath == nil {
		cfg.UpdatePath = pathenv.UpdateUserPath
	}
	return &Manager{cfg: cfg}
}

// DefaultInstallDir returns where the binary goes when no override is
// set: ~/.local/bin on unix, %LOCALAPPDATA%\Programs\fps-tracker on
// Windows.
func DefaultInstallDir() (string, error) {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "Programs", "fps-tracker"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Local", "Programs", "fps-tracker"), nil
	}
	return filepath.Join(home, ".local", "bin"), nil
}

// Install runs the full pipeline and returns what it did.
func (m *Manager) Install(ctx context.Context, opts Options) (*Result, error) {
	log := m.cfg.Logger
	result := &Result{}

	for _, warning := range m.cfg.Policy.Validate() {
		log.Warn(warning)
		result.Warnings = append(result.Warnings, warning)
	}

	info, err := m.cfg.Detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	triple, err := info.Triple()
	if err != nil {
		return nil, err
	}
	result.Triple = triple
	log.Debug("resolved target", "triple", triple.String())

	resolver := m.cfg.Resolver
	if resolver == nil {
		resolver = release.NewResolver(opts.BaseURL)
	}
	version, err := resolver.Resolve(ctx, opts.Version)
	if err != nil {
		return nil, err
	}
	result.Version = version
	log.Info("installing fps-tracker", "version", version, "target", triple.String())

	installDir := opts.InstallDir
	if installDir == "" {
		installDir, err = DefaultInstallDir()
		if err != nil {
			return nil, err
		}
	}

	workdir, err := os.MkdirTemp("", "fpstracker-install-*")
	if err != nil {
		return nil, fmt.Errorf("create temp workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	artifacts := release.ArtifactsFor(resolver.BaseURL(), version, triple)
	archivePath := filepath.Join(workdir, artifacts.ArchiveName)

	log.Debug("downloading archive", "url", artifacts.ArchiveURL)
	if err := m.cfg.Client.Fetch(ctx, artifacts.ArchiveURL, archivePath); err != nil {
		return nil, fmt.Errorf("download archive: %w", err)
	}

	checksumRecord, err := m.fetchChecksumRecord(ctx, artifacts, workdir)
	if err != nil {
		return nil, err
	}

	verified, err := m.signatureBranch(ctx, artifacts, archivePath, workdir, result)
	if err != nil {
		return nil, err
	}
	result.SignatureVerified = verified

	if err := verify.Checksum(archivePath, checksumRecord); err != nil {
		return nil, err
	}
	log.Debug("checksum verified", "file", artifacts.ArchiveName)

	binaryName := triple.BinaryName()
	binaryPath := filepath.Join(installDir, binaryName)
	if err := extract.Binary(archivePath, binaryPath, binaryName); err != nil {
		return nil, fmt.Errorf("install binary: %w", err)
	}
	result.BinaryPath = binaryPath
	log.Debug("binary installed", "path", binaryPath)

	if err := m.updatePath(installDir, result); err != nil {
		return nil, err
	}

	return result, nil
}

// fetchChecksumRecord downloads trust material for the checksum step:
// the per-archive .sha256 asset, falling back to the consolidated
// SHA256SUMS manifest. Checksum verification has no disable flag, so a
// release publishing neither is not installable.
func (m *Manager) fetchChecksumRecord(ctx context.Context, artifacts release.Artifacts, workdir string) (string, error) {
	checksumPath := filepath.Join(workdir, artifacts.ArchiveName+".sha256")
	err := m.cfg.Client.Fetch(ctx, artifacts.ChecksumURL, checksumPath)
	if err == nil {
		record, readErr := os.ReadFile(checksumPath)
		if readErr != nil {
			return "", fmt.Errorf("read checksum: %w", readErr)
		}
		return string(record), nil
	}
	if !download.IsNotFound(err) {
		return "", fmt.Errorf("download checksum: %w", err)
	}

	m.cfg.Logger.Debug("per-archive checksum missing, trying manifest", "url", artifacts.ManifestURL)
	manifestPath := filepath.Join(workdir, "SHA256SUMS")
	if err := m.cfg.Client.Fetch(ctx, artifacts.ManifestURL, manifestPath); err != nil {
		return "", fmt.Errorf("release publishes no checksum for %s: %w", artifacts.ArchiveName, err)
	}
	record, err := verify.ChecksumFromManifest(manifestPath, artifacts.ArchiveName)
	if err != nil {
		return "", err
	}
	return record, nil
}

// signatureBranch applies the trust policy: skip entirely, verify when
// material is available, degrade with a warning or fail depending on
// RequireSignatureVerify when it is not. Reports whether a signature was
// actually verified.
func (m *Manager) signatureBranch(ctx context.Context, artifacts release.Artifacts, archivePath, workdir string, result *Result) (bool, error) {
	log := m.cfg.Logger
	policy := m.cfg.Policy

	if !policy.VerifySignatures() {
		warning := "signature verification skipped (" + trust.EnvSkipSignature + ")"
		log.Warn(warning)
		result.Warnings = append(result.Warnings, warning)
		return false, nil
	}

	sigPath, bundled, err := m.fetchSignature(ctx, artifacts, workdir)
	if err != nil {
		return false, err
	}
	if sigPath == "" {
		if policy.RequireSignatureVerify {
			return false, fmt.Errorf("%w: release publishes no signature and %s is set",
				verify.ErrSignatureFailed, trust.EnvRequireSignature)
		}
		warning := "release publishes no signature, continuing on checksum only"
		log.Warn(warning)
		result.Warnings = append(result.Warnings, warning)
		return false, nil
	}

	pubkeyPath, err := m.fetchPubkey(ctx, artifacts, workdir)
	if err != nil {
		return false, err
	}

	verifier, err := m.selectVerifier(ctx, sigPath, bundled, workdir)
	if err != nil {
		return false, err
	}

	if err := verifier.Verify(ctx, archivePath, sigPath, pubkeyPath); err != nil {
		return false, err
	}
	log.Debug("signature verified", "signature", filepath.Base(sigPath))
	return true, nil
}

// fetchSignature prefers the sigstore bundle, then the detached .sig.
// Absence of both is not an error here; the caller applies the policy.
func (m *Manager) fetchSignature(ctx context.Context, artifacts release.Artifacts, workdir string) (path string, bundled bool, err error) {
	bundlePath := filepath.Join(workdir, artifacts.ArchiveName+".sigstore.json")
	err = m.cfg.Client.Fetch(ctx, artifacts.BundleURL, bundlePath)
	if err == nil {
		return bundlePath, true, nil
	}
	if !download.IsNotFound(err) {
		return "", false, fmt.Errorf("download signature bundle: %w", err)
	}

	sigPath := filepath.Join(workdir, artifacts.ArchiveName+".sig")
	err = m.cfg.Client.Fetch(ctx, artifacts.SignatureURL, sigPath)
	if err == nil {
		return sigPath, false, nil
	}
	if !download.IsNotFound(err) {
		return "", false, fmt.Errorf("download signature: %w", err)
	}
	return "", false, nil
}

// fetchPubkey resolves the verification key: operator override, then the
// key the release publishes, then the embedded key.
func (m *Manager) fetchPubkey(ctx context.Context, artifacts release.Artifacts, workdir string) (string, error) {
	downloadedPath := filepath.Join(workdir, "cosign.pub")
	if err := m.cfg.Client.Fetch(ctx, artifacts.PubkeyURL, downloadedPath); err != nil {
		if !download.IsNotFound(err) {
			return "", fmt.Errorf("download public key: %w", err)
		}
		downloadedPath = ""
	}
	return verify.ResolvePubkey(m.cfg.Policy.CosignPubkeyPath, downloadedPath, filepath.Join(workdir, "cosign.pub.embedded"))
}

// selectVerifier picks the signature verifier implementation: an
// injected one, the in-process bundle verifier for .sigstore.json
// assets, the in-process PGP verifier for armored signatures, or the
// bootstrapped cosign CLI for everything else.
func (m *Manager) selectVerifier(ctx context.Context, sigPath string, bundled bool, workdir string) (verify.SignatureVerifier, error) {
	if m.cfg.Verifier != nil {
		return m.cfg.Verifier, nil
	}
	if bundled {
		return verify.NewBundleVerifier(), nil
	}
	if isArmoredPGP(sigPath) {
		return verify.NewPGPVerifier(), nil
	}
	toolPath, err := m.cfg.EnsureTool(ctx, m.cfg.Policy, workdir)
	if err != nil {
		return nil, fmt.Errorf("acquire verification tool: %w", err)
	}
	return cosign.NewCLIVerifier(toolPath), nil
}

func isArmoredPGP(sigPath string) bool {
	data, err := os.ReadFile(sigPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(data)), "-----BEGIN PGP")
}

// updatePath makes the install dir reachable: a durable user PATH
// prepend on Windows, rc-file guidance elsewhere. Skippable by policy.
func (m *Manager) updatePath(installDir string, result *Result) error {
	log := m.cfg.Logger
	if m.cfg.Policy.SkipPathUpdate {
		log.Debug("PATH update skipped", "env", trust.EnvSkipPathUpdate)
		return nil
	}
	if pathenv.Contains(os.Getenv("PATH"), installDir) {
		return nil
	}

	if runtime.GOOS == "windows" {
		changed, err := m.cfg.UpdatePath(installDir)
		if err != nil {
			return fmt.Errorf("update user PATH: %w", err)
		}
		result.PathUpdated = changed
		if changed {
			log.Info("added install dir to user PATH, restart your shell to pick it up", "dir", installDir)
		}
		return nil
	}

	warning := installDir + " is not on PATH; " + pathenv.Guidance(installDir)
	log.Warn(warning)
	result.Warnings = append(result.Warnings, warning)
	return nil
}
