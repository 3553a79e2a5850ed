// Package walk traverses a directory tree top-down and reports qualifying files.
package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/rules"
)

// EventKind identifies a traversal step.
type EventKind int

const (
	// EventEnterDirectory starts a directory block.
	EventEnterDirectory EventKind = iota
	// EventFile carries one qualifying file of the current directory.
	EventFile
	// EventLeaveDirectory closes the current directory block before its subdirectories are visited.
	EventLeaveDirectory
)

// DirectoryEvent describes a visited directory.
type DirectoryEvent struct {
	Path  string
	Name  string
	Depth int
}

// FileEvent describes a qualifying file and the result of reading it.
type FileEvent struct {
	Path   string
	Name   string
	Depth  int
	Result ReadResult
}

// Event is delivered to a Handler in traversal order.
type Event struct {
	Kind      EventKind
	Directory *DirectoryEvent
	File      *FileEvent
}

// Handler consumes events. A returned error stops the walk.
type Handler func(Event) error

// Options configures Walk. Root must be an absolute directory path.
type Options struct {
	Root   string
	Rules  *rules.Set
	Logger *zap.Logger
}

// ErrNotDirectory indicates that the walk root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

type treeWalker struct {
	rules   *rules.Set
	logger  *zap.Logger
	handler Handler
}

// Walk visits Root and every non-pruned directory below it, depth-first and root first.
// For each directory it emits EventEnterDirectory, one EventFile per qualifying child file,
// and EventLeaveDirectory, and only then descends into the remaining subdirectories.
// Failing to list the root is returned; failing to list a subdirectory is logged and that subtree is skipped.
func Walk(options Options, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("walk handler is nil")
	}
	if options.Rules == nil {
		return fmt.Errorf("walk rules are nil")
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, statErr := os.Stat(options.Root)
	if statErr != nil {
		return statErr
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", options.Root, ErrNotDirectory)
	}

	entries, readErr := os.ReadDir(options.Root)
	if readErr != nil {
		return fmt.Errorf("reading directory %s: %w", options.Root, readErr)
	}

	walker := treeWalker{rules: options.Rules, logger: logger, handler: handler}
	return walker.visitDirectory(options.Root, entries, 0)
}

func (walker *treeWalker) visitDirectory(path string, entries []fs.DirEntry, depth int) error {
	enterEvent := DirectoryEvent{Path: path, Name: filepath.Base(path), Depth: depth}
	if err := walker.handler(Event{Kind: EventEnterDirectory, Directory: &enterEvent}); err != nil {
		return err
	}

	var subdirectories []string
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())

		isDirectory, followable := classifyEntry(childPath, entry)
		if isDirectory {
			if walker.rules.SkipsFolder(entry.Name()) {
				walker.logger.Debug("pruned directory", zap.String("path", childPath))
				continue
			}
			if followable {
				subdirectories = append(subdirectories, childPath)
			}
			continue
		}

		if reason := walker.rules.Evaluate(childPath); reason != rules.ReasonNone {
			walker.logger.Debug("skipped file", zap.String("path", childPath), zap.String("reason", string(reason)))
			continue
		}

		fileEvent := FileEvent{
			Path:   childPath,
			Name:   entry.Name(),
			Depth:  depth + 1,
			Result: ReadText(childPath),
		}
		if fileEvent.Result.Kind == ReadUnreadable {
			walker.logger.Warn("could not read file", zap.String("path", childPath), zap.Error(fileEvent.Result.Err))
		}
		if err := walker.handler(Event{Kind: EventFile, File: &fileEvent}); err != nil {
			return err
		}
	}

	leaveEvent := enterEvent
	if err := walker.handler(Event{Kind: EventLeaveDirectory, Directory: &leaveEvent}); err != nil {
		return err
	}

	for _, subdirectoryPath := range subdirectories {
		childEntries, readErr := os.ReadDir(subdirectoryPath)
		if readErr != nil {
			walker.logger.Warn("skipping unreadable directory", zap.String("path", subdirectoryPath), zap.Error(readErr))
			continue
		}
		if err := walker.visitDirectory(subdirectoryPath, childEntries, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// classifyEntry reports whether entry is a directory and whether the walk may descend into it.
// Symbolic links to directories count as directories but are never followed.
func classifyEntry(path string, entry fs.DirEntry) (isDirectory bool, followable bool) {
	if entry.IsDir() {
		return true, true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false, false
	}
	target, statErr := os.Stat(path)
	if statErr != nil || !target.IsDir() {
		return false, false
	}
	return true, false
}
