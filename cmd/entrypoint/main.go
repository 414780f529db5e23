// Package main provides the container entrypoint.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

func main() {
	runType := getEnvWithDefault("RUN_TYPE", "worker")
	binDir := getEnvWithDefault("BIN_DIR", "/app/bin")

	switch runType {
	case "worker":
		// Bring the schema up to date before the long-running worker starts
		execBinary(filepath.Join(binDir, "db"), "migrate")
		execBinary(filepath.Join(binDir, "zoonas"), "worker", getEnvWithDefault("WORKER_TYPE", "rescore"))
	case "migrate":
		execBinary(filepath.Join(binDir, "db"), "migrate")
	case "rescore":
		execBinary(filepath.Join(binDir, "db"), "rescore")
	default:
		fmt.Fprintf(os.Stderr, "Invalid RUN_TYPE %q. Must be 'worker', 'migrate' or 'rescore'\n", runType)
		fmt.Fprintf(os.Stderr, "Usage: RUN_TYPE=worker [WORKER_TYPE=rescore] [BIN_DIR=/app/bin]\n")
		os.Exit(1)
	}
}

// getEnvWithDefault returns the environment variable value or the default if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// execBinary runs the binary with the given arguments and exits on failure.
func execBinary(path string, args ...string) {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute %s: %v\n", filepath.Base(path), err)
		os.Exit(1)
	}
}
