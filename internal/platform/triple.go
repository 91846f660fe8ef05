package platform

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform indicates the host has no release triple mapping.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Triple identifies one of the release target triples fps-tracker is
// built for. The set is closed: releases publish artifacts for exactly
// these four targets.
type Triple string

const (
	// TripleLinuxAMD64 is the Linux x86-64 glibc target.
	TripleLinuxAMD64 Triple = "x86_64-unknown-linux-gnu"
	// TripleDarwinAMD64 is the Intel macOS target.
	TripleDarwinAMD64 Triple = "x86_64-apple-darwin"
	// TripleDarwinARM64 is the Apple Silicon macOS target.
	TripleDarwinARM64 Triple = "aarch64-apple-darwin"
	// TripleWindowsAMD64 is the Windows x86-64 MSVC target.
	TripleWindowsAMD64 Triple = "x86_64-pc-windows-msvc"
)

// String returns the triple as it appears in release asset names.
func (t Triple) String() string {
	return string(t)
}

// ArchiveExt returns the archive extension releases use for this triple.
// Windows releases ship zip archives, everything else tar.gz.
func (t Triple) ArchiveExt() string {
	if t == TripleWindowsAMD64 {
		return ".zip"
	}
	return ".tar.gz"
}

// BinaryName returns the name of the fps-tracker executable inside the
// release archive for this triple.
func (t Triple) BinaryName() string {
	if t == TripleWindowsAMD64 {
		return "fps-tracker.exe"
	}
	return "fps-tracker"
}

// tripleMap is the closed OS×arch → triple mapping. Combinations absent
// from this table are unsupported, not defaulted.
var tripleMap = map[[2]string]Triple{
	{"linux", "amd64"}:   TripleLinuxAMD64,
	{"darwin", "amd64"}:  TripleDarwinAMD64,
	{"darwin", "arm64"}:  TripleDarwinARM64,
	{"windows", "amd64"}: TripleWindowsAMD64,
}

// ResolveTriple maps normalized OS and architecture names onto a release
// triple. Unknown combinations fail with ErrUnsupportedPlatform.
func ResolveTriple(goos, arch string) (Triple, error) {
	triple, ok := tripleMap[[2]string{goos, arch}]
	if !ok {
		return "", fmt.Errorf("%w: no fps-tracker release for %s/%s", ErrUnsupportedPlatform, goos, arch)
	}
	return triple, nil
}

// Triple resolves the release triple for this host.
func (i *Info) Triple() (Triple, error) {
	return ResolveTriple(i.OS, i.Arch)
}
