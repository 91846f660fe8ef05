//go:build !windows

package pathenv

// UpdateUserPath is a no-op on unix. Shells source PATH from rc files
// the user owns; print Guidance instead of editing them.
func UpdateUserPath(directory string) (bool, error) {
	return false, nil
}
