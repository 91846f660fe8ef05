package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/forgemypcgit/fpstracker-install/internal/installer"
	"github.com/forgemypcgit/fpstracker-install/internal/trust"
	"github.com/forgemypcgit/fpstracker-install/internal/ui"
)

// runInstall handles the `fpstracker-install install` subcommand.
func runInstall(args []string) error {
	opts := installer.Options{
		Version:    os.Getenv(trust.EnvVersion),
		InstallDir: os.Getenv(trust.EnvInstallDir),
		BaseURL:    os.Getenv(trust.EnvBaseURL),
	}
	policy := trust.FromEnv()
	verbose := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			printInstallHelp()
			return nil
		case "--verbose", "-v":
			verbose = true
		case "--version":
			i++
			if i >= len(args) {
				return fmt.Errorf("--version requires a value")
			}
			opts.Version = args[i]
		case "--install-dir":
			i++
			if i >= len(args) {
				return fmt.Errorf("--install-dir requires a value")
			}
			opts.InstallDir = args[i]
		case "--base-url":
			i++
			if i >= len(args) {
				return fmt.Errorf("--base-url requires a value")
			}
			opts.BaseURL = args[i]
		case "--skip-signature-verify":
			policy.SkipSignatureVerify = true
		case "--require-signature-verify":
			policy.RequireSignatureVerify = true
		case "--cosign-pubkey":
			i++
			if i >= len(args) {
				return fmt.Errorf("--cosign-pubkey requires a value")
			}
			policy.CosignPubkeyPath = args[i]
		case "--skip-path-update":
			policy.SkipPathUpdate = true
		default:
			return fmt.Errorf("unknown flag: %s (see 'fpstracker-install install --help')", args[i])
		}
	}

	log := ui.NewConsoleLogger(os.Stdout, os.Stderr, verbose)

	// Interrupt removes the temp workdir via the pipeline's defer
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := installer.NewManager(installer.Config{Policy: policy, Logger: log})
	result, err := m.Install(ctx, opts)
	if err != nil {
		return err
	}

	log.Success(fmt.Sprintf("fps-tracker %s installed", result.Version))
	log.Bullet("binary: " + result.BinaryPath)
	if result.SignatureVerified {
		log.Bullet("checksum and signature verified")
	} else {
		log.Bullet("checksum verified")
	}
	log.Bullet("next steps:")
	log.Bullet("  fps-tracker app     open the web dashboard")
	log.Bullet("  fps-tracker start   begin a capture session")
	return nil
}

func printInstallHelp() {
	help := strings.TrimLeft(`
Usage: fpstracker-install install [options]

Options:
  --version <tag>            Install a specific release (default: latest)
  --install-dir <dir>        Destination directory
  --base-url <url>           Download from a release mirror
  --skip-signature-verify    Skip signature verification (warns)
  --require-signature-verify Fail if the release is unsigned
  --cosign-pubkey <path>     Pin the signature public key
  --skip-path-update         Leave PATH alone
  --verbose, -v              Debug output
  --help, -h                 Show this help

Environment variables (flags take precedence):
  FPS_TRACKER_VERSION, FPS_TRACKER_INSTALL_DIR, FPS_TRACKER_BASE_URL,
  FPS_TRACKER_SKIP_SIGNATURE_VERIFY, FPS_TRACKER_REQUIRE_SIGNATURE_VERIFY,
  FPS_TRACKER_COSIGN_PUBKEY, FPS_TRACKER_ALLOW_INSECURE_HTTP,
  FPS_TRACKER_SKIP_PATH_UPDATE, FPS_TRACKER_COSIGN_VERSION,
  FPS_TRACKER_SKIP_COSIGN_CHECKSUM
`, "\n")
	fmt.Print(help)
}
