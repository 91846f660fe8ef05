//go:build windows

package pathenv

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// UpdateUserPath prepends directory to the user PATH registry value,
// once. It returns true when the value changed. New shells pick the
// change up; the current one keeps its environment.
func UpdateUserPath(directory string) (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return false, fmt.Errorf("open user environment key: %w", err)
	}
	defer key.Close()

	current, _, err := key.GetStringValue("Path")
	if err != nil && err != registry.ErrNotExist {
		return false, fmt.Errorf("read user PATH: %w", err)
	}

	if Contains(current, directory) {
		return false, nil
	}
	updated := PrependOnce(current, directory)

	if err := key.SetStringValue("Path", updated); err != nil {
		return false, fmt.Errorf("write user PATH: %w", err)
	}
	return true, nil
}
