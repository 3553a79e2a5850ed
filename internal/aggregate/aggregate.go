// Package aggregate flattens a directory tree into a single annotated text report.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/config"
	"github.com/temirov/flatten/internal/lock"
	"github.com/temirov/flatten/internal/report"
	"github.com/temirov/flatten/internal/rules"
	"github.com/temirov/flatten/internal/walk"
)

const outputFilePermissions = 0o644

// Options carries collaborators that are not part of the configuration.
type Options struct {
	Logger *zap.Logger
	// LockDirectory holds the per-output lock file. Empty means the OS temporary directory.
	LockDirectory string
}

// Result describes a completed run.
type Result struct {
	Root       string
	OutputPath string
	Summary    report.Summary
}

// Run writes the report for configuration.Root. Unreadable files become placeholders inside
// the report; any error returned here is fatal for the run.
func Run(configuration config.Configuration, options Options) (result Result, err error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := configuration.Normalized()
	if validationErr := normalized.Validate(); validationErr != nil {
		return Result{}, fmt.Errorf("invalid configuration: %w", validationErr)
	}

	root, rootErr := resolveRoot(normalized.Root)
	if rootErr != nil {
		return Result{}, rootErr
	}
	outputPath := normalized.OutputPath(root)

	outputLock := lock.ForOutput(outputPath)
	if options.LockDirectory != "" {
		outputLock = lock.ForOutputIn(options.LockDirectory, outputPath)
	}
	if lockErr := acquireOutputLock(outputLock, outputPath, logger); lockErr != nil {
		return Result{}, lockErr
	}
	defer func() {
		if unlockErr := outputLock.Unlock(); unlockErr != nil {
			logger.Warn("releasing output lock", zap.String("lock", outputLock.Path()), zap.Error(unlockErr))
		}
	}()

	// #nosec G304
	outputFile, openErr := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermissions)
	if openErr != nil {
		return Result{}, fmt.Errorf("open output %s: %w", outputPath, openErr)
	}
	defer func() {
		if closeErr := outputFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output %s: %w", outputPath, closeErr)
		}
	}()

	ruleSet := rules.New(rules.Options{
		Root:            root,
		OutputPath:      outputPath,
		Extensions:      normalized.Extensions,
		ExcludedFolders: normalized.ExcludedFolders,
		ExcludedFiles:   normalized.ExcludedFiles,
		RootLockfile:    normalized.RootLockfile,
	})
	renderer := report.NewRenderer(outputFile)

	logger.Debug("scanning", zap.String("root", root), zap.String("output", outputPath))
	if walkErr := walk.Walk(walk.Options{Root: root, Rules: ruleSet, Logger: logger}, renderer.Handle); walkErr != nil {
		return Result{}, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	if flushErr := renderer.Flush(); flushErr != nil {
		return Result{}, flushErr
	}

	return Result{Root: root, OutputPath: outputPath, Summary: renderer.Summary()}, nil
}

// acquireOutputLock takes the lock at once when it is free and otherwise waits for the run holding it.
func acquireOutputLock(outputLock *lock.OutputLock, outputPath string, logger *zap.Logger) error {
	acquired, tryErr := outputLock.TryLock()
	if tryErr != nil {
		return tryErr
	}
	if acquired {
		return nil
	}
	logger.Info("waiting for another run writing the same output", zap.String("output", outputPath))
	return outputLock.Lock()
}

// resolveRoot returns the clean absolute form of rootPath after checking that it is a directory.
func resolveRoot(rootPath string) (string, error) {
	absolutePath, absoluteErr := filepath.Abs(rootPath)
	if absoluteErr != nil {
		return "", fmt.Errorf("abs failed for '%s': %w", rootPath, absoluteErr)
	}
	cleanPath := filepath.Clean(absolutePath)
	info, statErr := os.Stat(cleanPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return "", fmt.Errorf("root '%s' does not exist: %w", rootPath, statErr)
		}
		return "", fmt.Errorf("stat failed for '%s': %w", rootPath, statErr)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root '%s': %w", rootPath, walk.ErrNotDirectory)
	}
	return cleanPath, nil
}
