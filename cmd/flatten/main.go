package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/cli"
	"github.com/temirov/flatten/internal/utils"
)

// main is the entry point for the flatten command.
func main() {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(level)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance, level); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
	}
}
