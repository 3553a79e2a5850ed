// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/aggregate"
	"github.com/temirov/flatten/internal/config"
	"github.com/temirov/flatten/internal/services/clipboard"
	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/utils"
)

const (
	configFlagName       = "config"
	outputFlagName       = "output"
	extensionFlagName    = "ext"
	excludeDirFlagName   = "exclude-dir"
	excludeFileFlagName  = "exclude-file"
	rootLockfileFlagName = "root-lockfile"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	copyFlagName         = "copy"
	verboseFlagName      = "verbose"
	versionFlagName      = "version"
	globalFlagName       = "global"
	forceFlagName        = "force"

	versionTemplate      = "flatten version: %s\n"
	rootUse              = "flatten [root]"
	rootShortDescription = "flatten a source tree into one annotated text file"
	rootLongDescription  = `flatten walks a directory tree, keeps files whose extension is included,
skips excluded folders and files, and writes every kept file under directory
and file headers into a single report inside the root.
Settings come from ~/.flatten/config.yaml, then ./.flatten.yaml or --config, then flags.`
	rootUsageExample = `  # Flatten the current directory
  flatten

  # Flatten ./web, keep only Go and Markdown, and copy the report
  flatten ./web --ext go --ext md --copy

  # Count report tokens for a specific model
  flatten --tokens --model gpt-4`

	initUse              = "init"
	initShortDescription = "write the default configuration file"
	initLongDescription  = `Write the built-in configuration as YAML to ./.flatten.yaml,
or to ~/.flatten/config.yaml with --global. Existing files are kept unless --force is given.`
	configUse              = "config [root]"
	configShortDescription = "print the effective configuration"

	configFlagDescription       = "configuration file used instead of ./" + utils.LocalConfigFileName
	outputFlagDescription       = "report file name, relative to the root unless absolute"
	extensionFlagDescription    = "included file extension (repeatable, replaces the configured list)"
	excludeDirFlagDescription   = "excluded folder name (repeatable, replaces the configured list)"
	excludeFileFlagDescription  = "excluded file name (repeatable, replaces the configured list)"
	rootLockfileFlagDescription = "lockfile name skipped only directly inside the root; empty disables"
	tokensFlagDescription       = "count tokens in the finished report"
	modelFlagDescription        = "tokenizer model to use for token counting"
	copyFlagDescription         = "copy the finished report to the clipboard"
	verboseFlagDescription      = "log every skipped file and folder"
	versionFlagDescription      = "display application version"
	globalFlagDescription       = "write the global configuration instead of the local one"
	forceFlagDescription        = "overwrite an existing configuration file"

	initWrittenFormat            = "Configuration written to %s\n"
	workingDirectoryErrorFormat  = "unable to determine working directory: %w"
	loadConfigurationErrorFormat = "load configuration: %w"
)

// dependencies are the collaborators a command run needs. Tests replace them.
type dependencies struct {
	logger           *zap.Logger
	level            zap.AtomicLevel
	workingDirectory string
	lockDirectory    string
	copier           clipboard.Copier
	newCounter       func(tokenizer.Config) (tokenizer.Counter, error)
}

// rootOptions stores the values of the flags shared by the root and config commands.
type rootOptions struct {
	configPath      string
	outputFileName  string
	extensions      []string
	excludedFolders []string
	excludedFiles   []string
	rootLockfile    string
	verbose         bool
}

// runOptions stores flags that only affect a report run.
type runOptions struct {
	tokensEnabled bool
	model         string
	copyEnabled   bool
	showVersion   bool
}

// Execute runs the flatten application. level is raised to debug by --verbose.
func Execute(logger *zap.Logger, level zap.AtomicLevel) error {
	rootCommand := createRootCommand(dependencies{
		logger:     logger,
		level:      level,
		copier:     clipboard.NewService(),
		newCounter: tokenizer.NewCounter,
	})
	rootCommand.SetArgs(normalizeCopyFlagArguments(os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	if deps.logger == nil {
		deps.logger = zap.NewNop()
	}
	var shared rootOptions
	var run runOptions
	run.model = tokenizer.DefaultModel

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if shared.verbose {
				deps.level.SetLevel(zap.DebugLevel)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if run.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			configuration, resolveErr := resolveConfiguration(command, deps, shared, arguments)
			if resolveErr != nil {
				return resolveErr
			}
			return runFlatten(command, deps, configuration, run)
		},
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&shared.configPath, configFlagName, "", configFlagDescription)
	persistentFlags.StringVar(&shared.outputFileName, outputFlagName, config.DefaultOutputFileName, outputFlagDescription)
	persistentFlags.StringArrayVar(&shared.extensions, extensionFlagName, nil, extensionFlagDescription)
	persistentFlags.StringArrayVar(&shared.excludedFolders, excludeDirFlagName, nil, excludeDirFlagDescription)
	persistentFlags.StringArrayVar(&shared.excludedFiles, excludeFileFlagName, nil, excludeFileFlagDescription)
	persistentFlags.StringVar(&shared.rootLockfile, rootLockfileFlagName, config.DefaultRootLockfile, rootLockfileFlagDescription)
	persistentFlags.BoolVarP(&shared.verbose, verboseFlagName, "v", false, verboseFlagDescription)

	rootCommand.Flags().BoolVar(&run.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	rootCommand.Flags().StringVar(&run.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	rootCommand.Flags().BoolVar(&run.showVersion, versionFlagName, false, versionFlagDescription)
	registerCopyFlag(rootCommand.Flags(), &run.copyEnabled)

	rootCommand.AddCommand(
		createInitCommand(deps),
		createConfigCommand(deps, &shared),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(deps dependencies) *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: deps.workingDirectory,
			})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(command.OutOrStdout(), initWrittenFormat, destination)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// createConfigCommand returns the config subcommand.
func createConfigCommand(deps dependencies, shared *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, resolveErr := resolveConfiguration(command, deps, *shared, arguments)
			if resolveErr != nil {
				return resolveErr
			}
			rendered, renderErr := config.Render(configuration.Normalized())
			if renderErr != nil {
				return renderErr
			}
			_, writeErr := command.OutOrStdout().Write(rendered)
			return writeErr
		},
	}
}

// resolveConfiguration layers defaults, configuration files, changed flags, and the positional root.
func resolveConfiguration(command *cobra.Command, deps dependencies, shared rootOptions, arguments []string) (config.Configuration, error) {
	workingDirectory := deps.workingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return config.Configuration{}, fmt.Errorf(workingDirectoryErrorFormat, err)
		}
		workingDirectory = currentDirectory
	}

	fileConfiguration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: shared.configPath,
	})
	if loadErr != nil {
		return config.Configuration{}, fmt.Errorf(loadConfigurationErrorFormat, loadErr)
	}
	configuration := fileConfiguration.Apply(config.DefaultConfiguration())

	flags := command.Flags()
	if flags.Changed(outputFlagName) {
		configuration.OutputFileName = shared.outputFileName
	}
	if flags.Changed(extensionFlagName) {
		configuration.Extensions = splitListValues(shared.extensions)
	}
	if flags.Changed(excludeDirFlagName) {
		configuration.ExcludedFolders = splitListValues(shared.excludedFolders)
	}
	if flags.Changed(excludeFileFlagName) {
		configuration.ExcludedFiles = splitListValues(shared.excludedFiles)
	}
	if flags.Changed(rootLockfileFlagName) {
		configuration.RootLockfile = shared.rootLockfile
	}
	if len(arguments) == 1 {
		configuration.Root = arguments[0]
	}
	if !filepath.IsAbs(configuration.Root) {
		configuration.Root = filepath.Join(workingDirectory, configuration.Root)
	}
	return configuration, nil
}

// runFlatten writes the report and then performs the optional token count and clipboard copy.
func runFlatten(command *cobra.Command, deps dependencies, configuration config.Configuration, run runOptions) error {
	result, runErr := aggregate.Run(configuration, aggregate.Options{
		Logger:        deps.logger,
		LockDirectory: deps.lockDirectory,
	})
	if runErr != nil {
		return runErr
	}

	printer := newCompletionPrinter(command.OutOrStdout())
	printer.printDone(result.OutputPath)

	var tokens *tokenTotal
	if run.tokensEnabled {
		tokens = countReportTokens(deps, run.model, result.OutputPath)
	}
	printer.printSummary(result.Summary, tokens)

	if run.copyEnabled {
		if deps.copier == nil {
			deps.logger.Warn("clipboard copy skipped", zap.Error(clipboard.ErrUnsupported))
		} else if copyErr := clipboard.CopyFile(deps.copier, result.OutputPath); copyErr != nil {
			deps.logger.Warn("clipboard copy failed", zap.Error(copyErr))
		} else {
			deps.logger.Info("report copied to clipboard", zap.String("path", result.OutputPath))
		}
	}
	return nil
}

func countReportTokens(deps dependencies, model string, outputPath string) *tokenTotal {
	if deps.newCounter == nil {
		return nil
	}
	counter, counterErr := deps.newCounter(tokenizer.Config{Model: model})
	if counterErr != nil {
		deps.logger.Warn("token counting unavailable", zap.String("model", model), zap.Error(counterErr))
		return nil
	}
	count, countErr := tokenizer.CountFile(counter, outputPath)
	if countErr != nil {
		deps.logger.Warn("failed to count tokens", zap.String("path", outputPath), zap.Error(countErr))
		return nil
	}
	return &tokenTotal{count: count, model: counter.Name()}
}

// splitListValues accepts both repeated flags and comma separated values.
func splitListValues(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return utils.DeduplicatePatterns(result)
}
