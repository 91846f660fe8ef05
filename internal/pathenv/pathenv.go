// Package pathenv makes an install directory reachable from the user's
// PATH. The only durable mutation is the Windows user PATH registry
// value; on unix the shell owns PATH, so callers print rc-file guidance
// instead.
package pathenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PrependOnce returns currentPath with directory prepended, unless an
// equivalent entry is already present, in which case currentPath is
// returned unchanged (modulo empty-entry cleanup). The separator is
// inferred from the input so Windows-style values round-trip even when
// manipulated on another OS.
func PrependOnce(currentPath, directory string) string {
	separator := separatorFor(currentPath, directory)
	entries := splitEntries(currentPath, separator)

	for _, entry := range entries {
		if normalizeForCompare(entry) == normalizeForCompare(directory) {
			return strings.Join(entries, separator)
		}
	}

	return strings.Join(append([]string{directory}, entries...), separator)
}

// Contains reports whether directory already has an equivalent entry in
// currentPath.
func Contains(currentPath, directory string) bool {
	separator := separatorFor(currentPath, directory)
	stripped := strings.Join(splitEntries(currentPath, separator), separator)
	return PrependOnce(currentPath, directory) == stripped
}

// separatorFor infers the list separator from both inputs so that
// PrependOnce and Contains always split the same way.
func separatorFor(currentPath, directory string) string {
	if strings.Contains(currentPath, ";") || looksLikeWindowsPath(currentPath) || looksLikeWindowsPath(directory) {
		return ";"
	}
	return ":"
}

// splitEntries splits a PATH value and drops empty entries.
func splitEntries(currentPath, separator string) []string {
	var entries []string
	for _, entry := range strings.Split(currentPath, separator) {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// looksLikeWindowsPath recognizes backslash paths, UNC prefixes, and
// drive letters.
func looksLikeWindowsPath(value string) bool {
	trimmed := strings.TrimSpace(value)
	if strings.Contains(trimmed, `\`) {
		return true
	}
	return len(trimmed) > 1 && trimmed[1] == ':'
}

// Guidance returns the line a user should add to their shell rc file to
// put directory on PATH, with the rc file inferred from $SHELL.
func Guidance(directory string) string {
	line := fmt.Sprintf(`export PATH="%s:$PATH"`, directory)
	switch filepath.Base(os.Getenv("SHELL")) {
	case "zsh":
		return fmt.Sprintf("add to ~/.zshrc: %s", line)
	case "fish":
		return fmt.Sprintf("add to ~/.config/fish/config.fish: fish_add_path %s", directory)
	case "bash":
		return fmt.Sprintf("add to ~/.bashrc: %s", line)
	default:
		return fmt.Sprintf("add to your shell rc file: %s", line)
	}
}

// normalizeForCompare makes PATH entries comparable across trailing
// slashes and Windows case-insensitivity.
func normalizeForCompare(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimRight(trimmed, `\/`)
	return strings.ToLower(trimmed)
}
