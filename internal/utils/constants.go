package utils

const (
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".flatten"
	// ConfigFileName is the name of the global configuration file.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the name of the configuration file looked up in the working directory.
	LocalConfigFileName = ".flatten.yaml"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal execution errors.
	ApplicationExecutionFailedMessage = "flatten failed"
)
