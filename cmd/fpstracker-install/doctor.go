package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/forgemypcgit/fpstracker-install/internal/installer"
	"github.com/forgemypcgit/fpstracker-install/internal/pathenv"
	"github.com/forgemypcgit/fpstracker-install/internal/platform"
	"github.com/forgemypcgit/fpstracker-install/internal/trust"
	"github.com/forgemypcgit/fpstracker-install/internal/ui"
)

// dependencyStatus is one row of the doctor report.
type dependencyStatus struct {
	name      string
	required  bool
	available bool
	details   string
}

// runDoctor handles the `fpstracker-install doctor` subcommand.
func runDoctor(args []string) error {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			fmt.Println("Usage: fpstracker-install doctor")
			fmt.Println()
			fmt.Println("Reports platform support and the status of everything an")
			fmt.Println("install run would depend on. Makes no changes.")
			return nil
		}
	}

	log := ui.NewConsoleLogger(os.Stdout, os.Stderr, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}

	fmt.Printf("Platform: %s/%s", info.OS, info.Arch)
	if info.IsLinux() && info.Platform != "" {
		fmt.Printf(" (%s %s)", info.Platform, info.Version)
	}
	fmt.Println()

	statuses := collectStatuses(info)
	healthy := true
	for _, s := range statuses {
		marker := "ok"
		if !s.available {
			if s.required {
				marker = "MISSING"
				healthy = false
			} else {
				marker = "absent"
			}
		}
		fmt.Printf("  [%-7s] %-16s %s\n", marker, s.name, s.details)
	}

	fmt.Println()
	if healthy {
		log.Success("ready to install")
	} else {
		log.Warn("some required checks failed; install may not succeed")
	}
	return nil
}

func collectStatuses(info *platform.Info) []dependencyStatus {
	var statuses []dependencyStatus

	triple, err := info.Triple()
	tripleOK := err == nil
	details := ""
	if tripleOK {
		details = triple.String()
	} else {
		details = err.Error()
	}
	statuses = append(statuses, dependencyStatus{
		name:      "release target",
		required:  true,
		available: tripleOK,
		details:   details,
	})

	installDir := os.Getenv(trust.EnvInstallDir)
	dirErr := error(nil)
	if installDir == "" {
		installDir, dirErr = installer.DefaultInstallDir()
		if dirErr != nil {
			installDir = "(unresolvable: " + dirErr.Error() + ")"
		}
	}
	statuses = append(statuses, dependencyStatus{
		name:      "install dir",
		required:  true,
		available: dirErr == nil,
		details:   installDir,
	})

	onPath := pathenv.Contains(os.Getenv("PATH"), installDir)
	pathDetails := "on PATH"
	if !onPath {
		pathDetails = "not on PATH; " + pathenv.Guidance(installDir)
	}
	statuses = append(statuses, dependencyStatus{
		name:      "PATH entry",
		required:  false,
		available: onPath,
		details:   pathDetails,
	})

	if cosignPath, lookErr := exec.LookPath("cosign"); lookErr == nil {
		statuses = append(statuses, dependencyStatus{
			name:      "cosign",
			required:  false,
			available: true,
			details:   cosignPath,
		})
	} else {
		statuses = append(statuses, dependencyStatus{
			name:      "cosign",
			required:  false,
			available: false,
			details:   "will be bootstrapped from a pinned release if needed",
		})
	}

	binaryName := "fps-tracker"
	if info.IsWindows() {
		binaryName = "fps-tracker.exe"
	}
	binaryPath := filepath.Join(installDir, binaryName)
	if _, statErr := os.Stat(binaryPath); statErr == nil {
		statuses = append(statuses, dependencyStatus{
			name:      "fps-tracker",
			required:  false,
			available: true,
			details:   binaryPath + " (already installed)",
		})
	} else {
		statuses = append(statuses, dependencyStatus{
			name:      "fps-tracker",
			required:  false,
			available: false,
			details:   "not installed yet",
		})
	}

	return statuses
}
