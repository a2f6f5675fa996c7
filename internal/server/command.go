package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	serveCommandUseConstant              = "serve"
	serveCommandShortDescriptionConstant = "Run the chronos HTTP API"
	serveCommandLongDescriptionConstant  = "serve starts the HTTP API that fetches, rewrites, and commits GitHub files, forwards form emails, and relays agent queries."
	listenAddressFlagNameConstant        = "listen-address"
	listenAddressFlagUsageConstant       = "Override the configured listen address (host:port)."
	unexpectedArgumentsMessageConstant   = "serve does not accept positional arguments"
	serveFailedTemplateConstant          = "serve failed: %w"
	componentsCloseFailedMessage         = "closing service components failed"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current service configuration.
type ConfigurationProvider func() ServiceConfiguration

// Runner starts the server for the assembled handler. Tests replace it to avoid binding sockets.
type Runner func(runContext context.Context, configuration Configuration, handler http.Handler, logger *zap.Logger) error

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	HTTPClient            *http.Client
	Runner                Runner
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	serveCommand := &cobra.Command{
		Use:   serveCommandUseConstant,
		Short: serveCommandShortDescriptionConstant,
		Long:  serveCommandLongDescriptionConstant,
		RunE:  builder.runServe,
	}
	serveCommand.Flags().String(listenAddressFlagNameConstant, "", listenAddressFlagUsageConstant)
	return serveCommand, nil
}

func (builder *CommandBuilder) runServe(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	listenAddressFlagValue, flagError := command.Flags().GetString(listenAddressFlagNameConstant)
	if flagError != nil {
		return flagError
	}
	if trimmedAddress := strings.TrimSpace(listenAddressFlagValue); len(trimmedAddress) > 0 {
		configuration.Server.ListenAddress = trimmedAddress
	}

	parentContext := command.Context()
	if parentContext == nil {
		parentContext = context.Background()
	}
	runContext, stop := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := builder.resolveLogger()
	components, assembleError := Assemble(runContext, configuration, builder.HTTPClient, logger)
	if assembleError != nil {
		return fmt.Errorf(serveFailedTemplateConstant, assembleError)
	}
	defer func() {
		if closeError := components.Close(); closeError != nil {
			logger.Warn(componentsCloseFailedMessage, zap.Error(closeError))
		}
	}()

	if runError := builder.resolveRunner()(runContext, configuration.Server, components.Handler, logger); runError != nil {
		return fmt.Errorf(serveFailedTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() ServiceConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultServiceConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveRunner() Runner {
	if builder.Runner != nil {
		return builder.Runner
	}
	return func(runContext context.Context, configuration Configuration, handler http.Handler, logger *zap.Logger) error {
		return NewServer(configuration, handler, logger).ListenAndServe(runContext)
	}
}
