package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.2.5"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("fpstracker-install %s\n", Version)
			return
		case "install":
			if err := runInstall(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "verify":
			if err := runVerify(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "doctor":
			if err := runDoctor(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "--help", "-h", "help":
			// fall through to usage
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	printUsage()
}

func printUsage() {
	fmt.Println("fpstracker-install - installer for the fps-tracker benchmark CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fpstracker-install install [options]           Download, verify, and install fps-tracker")
	fmt.Println("  fpstracker-install verify <archive> <checksum> [sig] [pubkey]")
	fmt.Println("                                                 Verify already-downloaded artifacts offline")
	fmt.Println("  fpstracker-install doctor                      Report platform and dependency status")
	fmt.Println("  fpstracker-install --version                   Show version information")
	fmt.Println()
	fmt.Println("Configuration is read from FPS_TRACKER_* environment variables;")
	fmt.Println("run 'fpstracker-install install --help' for the full list.")
}
