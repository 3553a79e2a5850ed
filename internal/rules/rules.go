// Package rules decides which folders are pruned and which files qualify for the report.
package rules

import (
	"path/filepath"
	"strings"
)

// SkipReason names the rule that excluded a file. ReasonNone means the file qualifies.
type SkipReason string

const (
	ReasonNone         SkipReason = ""
	ReasonOutputFile   SkipReason = "output file"
	ReasonExcludedFile SkipReason = "excluded file"
	ReasonRootLockfile SkipReason = "root lockfile"
	ReasonExtension    SkipReason = "extension not included"
)

// Options carries the resolved inputs of a Set. Root and OutputPath must be absolute.
type Options struct {
	Root            string
	OutputPath      string
	Extensions      []string
	ExcludedFolders []string
	ExcludedFiles   []string
	RootLockfile    string
}

// Set evaluates folder and file exclusion rules for a single run.
type Set struct {
	root            string
	outputPath      string
	extensions      []string
	excludedFolders map[string]struct{}
	excludedFiles   map[string]struct{}
	rootLockfile    string
}

// New builds a Set. Extensions are compared case-insensitively.
func New(options Options) *Set {
	extensions := make([]string, 0, len(options.Extensions))
	for _, extension := range options.Extensions {
		if extension == "" {
			continue
		}
		extensions = append(extensions, strings.ToLower(extension))
	}
	return &Set{
		root:            filepath.Clean(options.Root),
		outputPath:      filepath.Clean(options.OutputPath),
		extensions:      extensions,
		excludedFolders: toSet(options.ExcludedFolders),
		excludedFiles:   toSet(options.ExcludedFiles),
		rootLockfile:    options.RootLockfile,
	}
}

// SkipsFolder reports whether a directory with the given basename is pruned with its whole subtree.
func (set *Set) SkipsFolder(name string) bool {
	_, excluded := set.excludedFolders[name]
	return excluded
}

// Evaluate applies the file rules in order and returns the first matching reason.
// filePath must be absolute.
func (set *Set) Evaluate(filePath string) SkipReason {
	cleanPath := filepath.Clean(filePath)
	if cleanPath == set.outputPath {
		return ReasonOutputFile
	}
	name := filepath.Base(cleanPath)
	if _, excluded := set.excludedFiles[name]; excluded {
		return ReasonExcludedFile
	}
	if set.rootLockfile != "" && name == set.rootLockfile && filepath.Dir(cleanPath) == set.root {
		return ReasonRootLockfile
	}
	if !set.hasIncludedExtension(name) {
		return ReasonExtension
	}
	return ReasonNone
}

func (set *Set) hasIncludedExtension(name string) bool {
	lowerName := strings.ToLower(name)
	for _, extension := range set.extensions {
		if strings.HasSuffix(lowerName, extension) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		result[value] = struct{}{}
	}
	return result
}
