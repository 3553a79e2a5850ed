package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/flatten/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds the values found in configuration files.
// Empty strings, nil slices, and nil pointers mean the key was not set.
type ApplicationConfiguration struct {
	Root            string   `mapstructure:"root"`
	OutputFileName  string   `mapstructure:"output"`
	Extensions      []string `mapstructure:"extensions"`
	ExcludedFolders []string `mapstructure:"exclude_folders"`
	ExcludedFiles   []string `mapstructure:"exclude_files"`
	RootLockfile    *string  `mapstructure:"root_lockfile"`
}

// LoadApplicationConfiguration loads configuration from the global file and then the local one.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.LocalConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
// Lists replace lists as a whole.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Root != "" {
		result.Root = override.Root
	}
	if override.OutputFileName != "" {
		result.OutputFileName = override.OutputFileName
	}
	if override.Extensions != nil {
		result.Extensions = utils.DeduplicatePatterns(override.Extensions)
	}
	if override.ExcludedFolders != nil {
		result.ExcludedFolders = utils.DeduplicatePatterns(override.ExcludedFolders)
	}
	if override.ExcludedFiles != nil {
		result.ExcludedFiles = utils.DeduplicatePatterns(override.ExcludedFiles)
	}
	if override.RootLockfile != nil {
		result.RootLockfile = cloneString(override.RootLockfile)
	}
	return result
}

// Apply overlays the file values onto base, typically DefaultConfiguration.
func (config ApplicationConfiguration) Apply(base Configuration) Configuration {
	result := base
	if config.Root != "" {
		result.Root = config.Root
	}
	if config.OutputFileName != "" {
		result.OutputFileName = config.OutputFileName
	}
	if config.Extensions != nil {
		result.Extensions = append([]string{}, config.Extensions...)
	}
	if config.ExcludedFolders != nil {
		result.ExcludedFolders = append([]string{}, config.ExcludedFolders...)
	}
	if config.ExcludedFiles != nil {
		result.ExcludedFiles = append([]string{}, config.ExcludedFiles...)
	}
	if config.RootLockfile != nil {
		result.RootLockfile = *config.RootLockfile
	}
	return result
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
