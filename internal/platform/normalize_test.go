package platform

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"amd64 passthrough", "amd64", "amd64", false},
		{"x86_64 alias", "x86_64", "amd64", false},
		{"arm64 passthrough", "arm64", "arm64", false},
		{"aarch64 alias", "aarch64", "arm64", false},
		{"i386 has no release", "i386", "", true},
		{"arm32 has no release", "arm", "", true},
		{"riscv64 has no release", "riscv64", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeArchErrorNamesSupportedSet(t *testing.T) {
	_, err := normalizeArch("i386")
	if err == nil {
		t.Fatal("normalizeArch(i386) should fail")
	}
	if !strings.Contains(err.Error(), "amd64") || !strings.Contains(err.Error(), "arm64") {
		t.Errorf("error %q should tell the user which architectures have releases", err)
	}
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("error should wrap ErrUnsupportedPlatform, got %v", err)
	}
}

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ubuntu", "ubuntu"},
		{"Ubuntu", "ubuntu"},
		{"UBUNTU", "ubuntu"},
		{"  ubuntu  ", "ubuntu"},
		{"arch", "arch"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizePlatform(tt.input); got != tt.want {
			t.Errorf("normalizePlatform(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"debian canonical", "debian", FamilyDebian},
		{"ubuntu maps to debian", "ubuntu", FamilyDebian},
		{"centos maps to rhel", "centos", FamilyRHEL},
		{"rocky maps to rhel", "rocky", FamilyRHEL},
		{"opensuse maps to suse", "opensuse", FamilySUSE},
		{"manjaro maps to arch", "manjaro", FamilyArch},
		{"alpine canonical", "alpine", FamilyAlpine},
		{"case insensitive", "RHEL", FamilyRHEL},
		{"whitespace trimmed", "  debian  ", FamilyDebian},
		{"unrecognized", "somethingelse", FamilyUnknown},
		{"empty", "", FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapFamily(tt.input); got != tt.want {
				t.Errorf("mapFamily(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
