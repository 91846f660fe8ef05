package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/forgemypcgit/fpstracker-install/internal/ui"
	"github.com/forgemypcgit/fpstracker-install/internal/verify"
)

// runVerify handles the `fpstracker-install verify` subcommand: offline
// verification of artifacts that are already on disk. No network.
func runVerify(args []string) error {
	var positional []string
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			printVerifyHelp()
			return nil
		default:
			if strings.HasPrefix(arg, "-") {
				return fmt.Errorf("unknown flag: %s", arg)
			}
			positional = append(positional, arg)
		}
	}
	if len(positional) < 2 || len(positional) > 4 {
		printVerifyHelp()
		return fmt.Errorf("verify takes an archive, a checksum file, and optionally a signature and public key")
	}

	archivePath := positional[0]
	checksumPath := positional[1]
	log := ui.NewConsoleLogger(os.Stdout, os.Stderr, false)

	record, err := checksumRecord(checksumPath, archivePath)
	if err != nil {
		return err
	}
	if err := verify.Checksum(archivePath, record); err != nil {
		return err
	}
	log.Success("checksum verified")

	if len(positional) < 3 {
		return nil
	}
	sigPath := positional[2]

	pubkeyPath := ""
	if len(positional) == 4 {
		pubkeyPath = positional[3]
	}
	resolved, err := verify.ResolvePubkey(pubkeyPath, "", archivePath+".pub.embedded")
	if err != nil {
		return err
	}
	if resolved != pubkeyPath {
		defer os.Remove(resolved)
	}

	verifier := signatureVerifierFor(sigPath)
	if err := verifier.Verify(context.Background(), archivePath, sigPath, resolved); err != nil {
		return err
	}
	log.Success("signature verified")
	return nil
}

// checksumRecord reads the expected digest: a per-archive .sha256 file
// or a SHA256SUMS manifest.
func checksumRecord(checksumPath, archivePath string) (string, error) {
	if strings.HasSuffix(checksumPath, "SHA256SUMS") {
		return verify.ChecksumFromManifest(checksumPath, archivePathBase(archivePath))
	}
	record, err := os.ReadFile(checksumPath)
	if err != nil {
		return "", fmt.Errorf("read checksum: %w", err)
	}
	return string(record), nil
}

func archivePathBase(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// signatureVerifierFor picks the in-process verifier by signature shape:
// sigstore bundles and armored PGP are recognized, everything else is
// treated as a cosign-style key signature.
func signatureVerifierFor(sigPath string) verify.SignatureVerifier {
	if strings.HasSuffix(sigPath, ".sigstore.json") {
		return verify.NewBundleVerifier()
	}
	if data, err := os.ReadFile(sigPath); err == nil &&
		strings.HasPrefix(strings.TrimSpace(string(data)), "-----BEGIN PGP") {
		return verify.NewPGPVerifier()
	}
	return verify.NewKeyVerifier()
}

func printVerifyHelp() {
	fmt.Println("Usage: fpstracker-install verify <archive> <checksum|SHA256SUMS> [signature] [pubkey]")
	fmt.Println()
	fmt.Println("Verifies artifacts already on disk. Without a pubkey argument the")
	fmt.Println("key embedded in this installer is used.")
}
