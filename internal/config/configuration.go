// Package config defines the aggregation configuration and loads it from files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/flatten/internal/utils"
)

const (
	// DefaultRoot is the directory scanned when nothing else is configured.
	DefaultRoot = "."
	// DefaultOutputFileName is the report file written inside the root.
	DefaultOutputFileName = "all_files_content.txt"
	// DefaultRootLockfile is excluded only when it sits directly in the root.
	DefaultRootLockfile = "package-lock.json"

	extensionPrefix = "."
)

var (
	defaultExtensions = []string{
		".php", ".html", ".js", ".jsx", ".ts", ".tsx",
		".css", ".scss", ".json", ".xml", ".md", ".txt", ".yml", ".yaml",
	}
	defaultExcludedFolders = []string{".git", "node_modules", "_sokrates", "_sokrates-explorer", "dist"}
	defaultExcludedFiles   = []string{
		"analysis_conventions.json",
		".eslintrc.json",
		"eslint-config.json",
		"eslint.config.js",
		"git-history.txt",
		"jest.config.js",
		"package.json",
	}

	// ErrEmptyOutputFileName indicates that no output file name is configured.
	ErrEmptyOutputFileName = errors.New("output file name is empty")
	// ErrNoExtensions indicates that no file extension would ever qualify.
	ErrNoExtensions = errors.New("included extension set is empty")
)

// Configuration holds every option recognized by the aggregator.
type Configuration struct {
	Root            string   `yaml:"root"`
	OutputFileName  string   `yaml:"output"`
	Extensions      []string `yaml:"extensions"`
	ExcludedFolders []string `yaml:"exclude_folders"`
	ExcludedFiles   []string `yaml:"exclude_files"`
	RootLockfile    string   `yaml:"root_lockfile"`
}

// DefaultConfiguration returns the built-in settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Root:            DefaultRoot,
		OutputFileName:  DefaultOutputFileName,
		Extensions:      append([]string{}, defaultExtensions...),
		ExcludedFolders: append([]string{}, defaultExcludedFolders...),
		ExcludedFiles:   append([]string{}, defaultExcludedFiles...),
		RootLockfile:    DefaultRootLockfile,
	}
}

// Normalized returns a copy with trimmed values, lower-case dotted extensions, and no duplicates.
func (configuration Configuration) Normalized() Configuration {
	result := configuration
	result.Root = strings.TrimSpace(configuration.Root)
	if result.Root == "" {
		result.Root = DefaultRoot
	}
	result.OutputFileName = strings.TrimSpace(configuration.OutputFileName)
	result.RootLockfile = strings.TrimSpace(configuration.RootLockfile)

	extensions := make([]string, 0, len(configuration.Extensions))
	for _, extension := range configuration.Extensions {
		normalized := NormalizeExtension(extension)
		if normalized == "" {
			continue
		}
		extensions = append(extensions, normalized)
	}
	result.Extensions = utils.DeduplicatePatterns(extensions)
	result.ExcludedFolders = utils.DeduplicatePatterns(trimValues(configuration.ExcludedFolders))
	result.ExcludedFiles = utils.DeduplicatePatterns(trimValues(configuration.ExcludedFiles))
	return result
}

// Validate reports configuration values that would make a run meaningless.
func (configuration Configuration) Validate() error {
	if strings.TrimSpace(configuration.OutputFileName) == "" {
		return ErrEmptyOutputFileName
	}
	for _, extension := range configuration.Extensions {
		if NormalizeExtension(extension) != "" {
			return nil
		}
	}
	return ErrNoExtensions
}

// OutputPath joins the output file name onto root unless the name is already absolute.
func (configuration Configuration) OutputPath(root string) string {
	if filepath.IsAbs(configuration.OutputFileName) {
		return filepath.Clean(configuration.OutputFileName)
	}
	return filepath.Join(root, configuration.OutputFileName)
}

// Render marshals the configuration as YAML.
func Render(configuration Configuration) ([]byte, error) {
	rendered, marshalError := yaml.Marshal(configuration)
	if marshalError != nil {
		return nil, fmt.Errorf("render configuration: %w", marshalError)
	}
	return rendered, nil
}

// NormalizeExtension lower-cases an extension and ensures it starts with a dot.
// Blank input yields an empty string.
func NormalizeExtension(extension string) string {
	trimmed := strings.ToLower(strings.TrimSpace(extension))
	if trimmed == "" || trimmed == extensionPrefix {
		return ""
	}
	if !strings.HasPrefix(trimmed, extensionPrefix) {
		trimmed = extensionPrefix + trimmed
	}
	return trimmed
}

func trimValues(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if candidate := strings.TrimSpace(value); candidate != "" {
			trimmed = append(trimmed, candidate)
		}
	}
	return trimmed
}
