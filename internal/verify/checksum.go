package verify

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumMismatchError reports a digest comparison failure with both
// values, so the user can tell truncation from tampering at a glance.
type ChecksumMismatchError struct {
	File     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s:\nexpected: %s\nactual:   %s",
		e.File, e.Expected, e.Actual)
}

// Checksum verifies a file against a checksum record. The record is the
// content of a .sha256 file: the first whitespace-delimited token is the
// expected digest, anything after it (usually the filename) is ignored.
// Comparison is case-insensitive but otherwise exact.
func Checksum(filePath, record string) error {
	expected := firstToken(record)
	if expected == "" {
		return fmt.Errorf("checksum record is empty")
	}
	if !isHexDigest(expected) {
		return fmt.Errorf("checksum record does not start with a SHA-256 digest: %q", firstToken(record))
	}

	actual, err := sha256File(filePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return &ChecksumMismatchError{
			File:     filepath.Base(filePath),
			Expected: strings.ToLower(expected),
			Actual:   actual,
		}
	}
	return nil
}

// ChecksumFromManifest finds the digest record for a filename inside a
// consolidated manifest (SHA256SUMS format: "digest  filename" per line).
// The returned record can be passed to Checksum.
func ChecksumFromManifest(manifestPath, filename string) (string, error) {
	file, err := os.Open(manifestPath)
	if err != nil {
		return "", fmt.Errorf("open checksum manifest: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		// Exact match first, then basename for entries carrying paths
		entryName := strings.TrimPrefix(parts[1], "*")
		if entryName == filename || filepath.Base(entryName) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum manifest: %w", err)
	}

	return "", fmt.Errorf("no manifest entry for %s", filename)
}

// sha256File calculates the hex-encoded SHA-256 digest of a file.
func sha256File(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// firstToken returns the first whitespace-delimited token of a record.
func firstToken(record string) string {
	fields := strings.Fields(record)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// isHexDigest reports whether a token looks like a SHA-256 hex digest.
func isHexDigest(token string) bool {
	if len(token) != sha256.Size*2 {
		return false
	}
	for _, ch := range token {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
