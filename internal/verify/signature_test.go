package verify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePubkeyOverrideWins(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "pinned.pub")
	downloaded := filepath.Join(dir, "downloaded.pub")
	for _, p := range []string{override, downloaded} {
		if err := os.WriteFile(p, []byte("key"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ResolvePubkey(override, downloaded, filepath.Join(dir, "embedded.pub"))
	if err != nil {
		t.Fatalf("ResolvePubkey() error = %v", err)
	}
	if got != override {
		t.Errorf("ResolvePubkey() = %q, want override %q", got, override)
	}
}

func TestResolvePubkeyMissingOverrideIsFatal(t *testing.T) {
	dir := t.TempDir()
	downloaded := filepath.Join(dir, "downloaded.pub")
	if err := os.WriteFile(downloaded, []byte("key"), 0644); err != nil {
		t.Fatal(err)
	}

	// A configured but absent override must not silently fall through to
	// a weaker source.
	_, err := ResolvePubkey(filepath.Join(dir, "absent.pub"), downloaded, filepath.Join(dir, "embedded.pub"))
	if err == nil {
		t.Fatal("ResolvePubkey() should fail when the override path does not exist")
	}
}

func TestResolvePubkeyDownloadedBeforeEmbedded(t *testing.T) {
	dir := t.TempDir()
	downloaded := filepath.Join(dir, "downloaded.pub")
	if err := os.WriteFile(downloaded, []byte("key"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolvePubkey("", downloaded, filepath.Join(dir, "embedded.pub"))
	if err != nil {
		t.Fatalf("ResolvePubkey() error = %v", err)
	}
	if got != downloaded {
		t.Errorf("ResolvePubkey() = %q, want downloaded %q", got, downloaded)
	}
}

func TestResolvePubkeyFallsBackToEmbedded(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "embedded.pub")

	got, err := ResolvePubkey("", filepath.Join(dir, "never-downloaded.pub"), fallback)
	if err != nil {
		t.Fatalf("ResolvePubkey() error = %v", err)
	}
	if got != fallback {
		t.Errorf("ResolvePubkey() = %q, want fallback %q", got, fallback)
	}
	written, err := os.ReadFile(fallback)
	if err != nil {
		t.Fatalf("read fallback: %v", err)
	}
	if !bytes.Equal(written, EmbeddedPubkey()) {
		t.Error("fallback file should contain the embedded key")
	}
}

func TestStubVerifier(t *testing.T) {
	stub := &StubVerifier{Err: ErrSignatureFailed}
	err := stub.Verify(context.Background(), "a", "b", "c")
	if !errors.Is(err, ErrSignatureFailed) {
		t.Errorf("Verify() = %v, want canned error", err)
	}
	stub.Err = nil
	if err := stub.Verify(context.Background(), "a", "b", "c"); err != nil {
		t.Errorf("Verify() = %v, want nil", err)
	}
	if stub.Calls != 2 {
		t.Errorf("Calls = %d, want 2", stub.Calls)
	}
}

func TestBundleVerifierRejectsGarbage(t *testing.T) {
	f := newKeyFixture(t, "release-archive")
	badBundle := filepath.Join(f.dir, "archive.sigstore.json")
	if err := os.WriteFile(badBundle, []byte("{not a bundle"), 0644); err != nil {
		t.Fatal(err)
	}

	v := NewBundleVerifier()
	err := v.Verify(context.Background(), f.archive, badBundle, f.pubkey)
	if !errors.Is(err, ErrSignatureFailed) {
		t.Errorf("Verify() = %v, want ErrSignatureFailed", err)
	}
}
