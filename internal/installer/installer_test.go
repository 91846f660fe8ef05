package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/forgemypcgit/fpstracker-install/internal/platform"
	"github.com/forgemypcgit/fpstracker-install/internal/release"
	"github.com/forgemypcgit/fpstracker-install/internal/trust"
	"github.com/forgemypcgit/fpstracker-install/internal/verify"
)

const testVersion = "v0.2.5"

type stubDetector struct {
	info *platform.Info
}

func (d *stubDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return d.info, nil
}

func linuxDetector() platform.Detector {
	return &stubDetector{info: &platform.Info{OS: "linux", Arch: "amd64"}}
}

// fakeRelease serves release assets over httptest and records which
// paths were requested.
type fakeRelease struct {
	mu     sync.Mutex
	assets map[string][]byte
	hits   []string
	srv    *httptest.Server
}

func newFakeRelease(t *testing.T) *fakeRelease {
	t.Helper()
	f := &fakeRelease{assets: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits = append(f.hits, r.URL.Path)
		body, ok := f.assets[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRelease) put(name string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets["/"+testVersion+"/"+name] = body
}

func (f *fakeRelease) requested(suffix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, path := range f.hits {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// archiveName matches the linux triple the stub detector reports.
const archiveName = "fps-tracker-x86_64-unknown-linux-gnu.tar.gz"

func makeArchive(t *testing.T, binaryContent string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{Name: "fps-tracker", Mode: 0755, Size: int64(len(binaryContent))}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(binaryContent)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func digestRecord(body []byte) []byte {
	sum := sha256.Sum256(body)
	return []byte(hex.EncodeToString(sum[:]) + "  " + archiveName + "\n")
}

func newTestManager(cfg Config) *Manager {
	if cfg.Detector == nil {
		cfg.Detector = linuxDetector()
	}
	return NewManager(cfg)
}

func run(t *testing.T, m *Manager, f *fakeRelease) (*Result, string, error) {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "bin")
	res, err := m.Install(context.Background(), Options{
		Version:    testVersion,
		InstallDir: dest,
		BaseURL:    f.srv.URL,
	})
	return res, dest, err
}

func TestInstallSucceedsWithWarningWhenUnsigned(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))

	m := newTestManager(Config{Policy: trust.Policy{SkipPathUpdate: true}})
	res, dest, err := run(t, m, f)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if res.SignatureVerified {
		t.Error("SignatureVerified = true for an unsigned release")
	}
	warned := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "no signature") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("Warnings = %v, want a no-signature warning", res.Warnings)
	}
	got, err := os.ReadFile(filepath.Join(dest, "fps-tracker"))
	if err != nil {
		t.Fatalf("installed binary missing: %v", err)
	}
	if string(got) != "ELF payload" {
		t.Errorf("installed content = %q", got)
	}
}

func TestInstallFailsOnCorruptedChecksum(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)

	// Corrupt one character of the published digest
	record := digestRecord(archive)
	if record[0] == '0' {
		record[0] = '1'
	} else {
		record[0] = '0'
	}
	f.put(archiveName+".sha256", record)

	m := newTestManager(Config{Policy: trust.Policy{SkipPathUpdate: true}})
	_, dest, err := run(t, m, f)
	var mismatch *verify.ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Install() = %v, want ChecksumMismatchError", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "fps-tracker")); !os.IsNotExist(statErr) {
		t.Error("nothing should be installed after a checksum mismatch")
	}
}

func TestInstallRequireSignatureFailsBeforeInstall(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))
	// No .sig, no bundle published

	m := newTestManager(Config{Policy: trust.Policy{RequireSignatureVerify: true, SkipPathUpdate: true}})
	_, dest, err := run(t, m, f)
	if !errors.Is(err, verify.ErrSignatureFailed) {
		t.Fatalf("Install() = %v, want ErrSignatureFailed", err)
	}
	if !strings.Contains(err.Error(), trust.EnvRequireSignature) {
		t.Errorf("error %q should name the policy env var", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "fps-tracker")); !os.IsNotExist(statErr) {
		t.Error("nothing should be installed when a required signature is missing")
	}
}

func TestInstallSkipMakesNoSignatureRequests(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))
	f.put(archiveName+".sig", []byte("should never be fetched"))
	f.put("cosign.pub", []byte("should never be fetched"))

	m := newTestManager(Config{Policy: trust.Policy{SkipSignatureVerify: true, SkipPathUpdate: true}})
	res, _, err := run(t, m, f)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if res.SignatureVerified {
		t.Error("SignatureVerified = true under skip policy")
	}
	for _, suffix := range []string{".sig", ".sigstore.json", "cosign.pub"} {
		if f.requested(suffix) {
			t.Errorf("skip policy must not request %s assets", suffix)
		}
	}
}

func TestInstallVerifiesDetachedPGPSignature(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))

	entity, err := openpgp.NewEntity("FPS Tracker Release", "", "release@forgemypc.test", nil)
	if err != nil {
		t.Fatal(err)
	}
	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(archive), nil); err != nil {
		t.Fatal(err)
	}
	f.put(archiveName+".sig", sig.Bytes())

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatal(err)
	}
	w.Close()
	f.put("cosign.pub", pub.Bytes())

	m := newTestManager(Config{Policy: trust.Policy{RequireSignatureVerify: true, SkipPathUpdate: true}})
	res, dest, err := run(t, m, f)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !res.SignatureVerified {
		t.Error("SignatureVerified = false for a signed release")
	}
	if _, err := os.Stat(filepath.Join(dest, "fps-tracker")); err != nil {
		t.Errorf("binary not installed: %v", err)
	}
}

func TestInstallFailedSignatureIsFatal(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))
	f.put(archiveName+".sig", []byte("sig"))
	f.put("cosign.pub", []byte("key"))

	m := newTestManager(Config{
		Policy:   trust.Policy{SkipPathUpdate: true},
		Verifier: &verify.StubVerifier{Err: verify.ErrSignatureFailed},
	})
	_, dest, err := run(t, m, f)
	if !errors.Is(err, verify.ErrSignatureFailed) {
		t.Fatalf("Install() = %v, want ErrSignatureFailed", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "fps-tracker")); !os.IsNotExist(statErr) {
		t.Error("nothing should be installed after a failed signature check")
	}
}

func TestInstallStubVerifierSeesDownloadedMaterial(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))
	f.put(archiveName+".sig", []byte("opaque signature"))
	f.put("cosign.pub", []byte("opaque key"))

	stub := &verify.StubVerifier{}
	m := newTestManager(Config{
		Policy:   trust.Policy{SkipPathUpdate: true},
		Verifier: stub,
	})
	res, _, err := run(t, m, f)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if stub.Calls != 1 {
		t.Errorf("verifier Calls = %d, want 1", stub.Calls)
	}
	if !res.SignatureVerified {
		t.Error("SignatureVerified = false after the verifier accepted")
	}
}

func TestInstallChecksumFromManifestFallback(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	// No per-archive .sha256; only the consolidated manifest
	sum := sha256.Sum256(archive)
	manifest := fmt.Sprintf("%s  %s\n%s  other.tar.gz\n",
		hex.EncodeToString(sum[:]), archiveName, strings.Repeat("0", 64))
	f.put("SHA256SUMS", []byte(manifest))

	m := newTestManager(Config{Policy: trust.Policy{SkipSignatureVerify: true, SkipPathUpdate: true}})
	if _, _, err := run(t, m, f); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
}

func TestInstallNoChecksumPublishedIsFatal(t *testing.T) {
	f := newFakeRelease(t)
	f.put(archiveName, makeArchive(t, "ELF payload"))

	m := newTestManager(Config{Policy: trust.Policy{SkipSignatureVerify: true, SkipPathUpdate: true}})
	_, _, err := run(t, m, f)
	if err == nil {
		t.Fatal("Install() should fail when no checksum is published")
	}
	if !strings.Contains(err.Error(), "checksum") {
		t.Errorf("error %q should mention the missing checksum", err)
	}
}

func TestInstallUnsupportedPlatform(t *testing.T) {
	m := NewManager(Config{
		Detector: &stubDetector{info: &platform.Info{OS: "plan9", Arch: "mips"}},
	})
	_, err := m.Install(context.Background(), Options{Version: testVersion})
	if !errors.Is(err, platform.ErrUnsupportedPlatform) {
		t.Fatalf("Install() = %v, want ErrUnsupportedPlatform", err)
	}
}

func TestInstallSkipAndRequireWarnsOnce(t *testing.T) {
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	f.put(archiveName, archive)
	f.put(archiveName+".sha256", digestRecord(archive))

	m := newTestManager(Config{Policy: trust.Policy{
		SkipSignatureVerify:    true,
		RequireSignatureVerify: true,
		SkipPathUpdate:         true,
	}})
	res, _, err := run(t, m, f)
	if err != nil {
		t.Fatalf("Install() error = %v, skip should win over require", err)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "precedence") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want a skip-takes-precedence warning", res.Warnings)
	}
}

func TestResolverMirrorSentinel(t *testing.T) {
	// A mirror base URL with no explicit version resolves to "custom"
	// and assets are fetched directly from the mirror root.
	f := newFakeRelease(t)
	archive := makeArchive(t, "ELF payload")
	sum := sha256.Sum256(archive)
	f.mu.Lock()
	f.assets["/"+archiveName] = archive
	f.assets["/"+archiveName+".sha256"] = []byte(hex.EncodeToString(sum[:]))
	f.mu.Unlock()

	m := newTestManager(Config{
		Policy:   trust.Policy{SkipSignatureVerify: true, SkipPathUpdate: true},
		Resolver: release.NewResolver(f.srv.URL),
	})
	dest := filepath.Join(t.TempDir(), "bin")
	res, err := m.Install(context.Background(), Options{InstallDir: dest, BaseURL: f.srv.URL})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if res.Version != release.VersionCustom {
		t.Errorf("Version = %q, want %q", res.Version, release.VersionCustom)
	}
}
