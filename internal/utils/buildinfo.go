package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// GetApplicationVersion reports the module version recorded at build time.
// Development builds fall back to git describe when run inside a checkout.
func GetApplicationVersion() string {
	if buildInfo, available := debug.ReadBuildInfo(); available {
		if version := buildInfo.Main.Version; version != "" && version != developmentVersion {
			return version
		}
	}

	repositoryDirectory, lookupError := findGitDirectory(".")
	if lookupError != nil {
		return unknownVersion
	}
	if exactTag := describeTags(repositoryDirectory, "--exact-match"); exactTag != "" {
		return exactTag
	}
	if longDescription := describeTags(repositoryDirectory, "--long", "--dirty"); longDescription != "" {
		return longDescription
	}
	return unknownVersion
}

func describeTags(repositoryDirectory string, extraArguments ...string) string {
	arguments := append([]string{"describe", "--tags"}, extraArguments...)
	// #nosec G204
	command := exec.Command("git", arguments...)
	command.Dir = repositoryDirectory
	output, commandError := command.Output()
	if commandError != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// findGitDirectory walks upward from startDirectory until it finds a directory
// containing GitDirectoryName.
func findGitDirectory(startDirectory string) (string, error) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", startDirectory, absoluteError)
	}

	for currentDirectory := absoluteStartDirectory; ; {
		fileInformation, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName))
		if statError == nil && fileInformation.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}

	return "", fmt.Errorf("%s directory not found in or above %s", GitDirectoryName, absoluteStartDirectory)
}
