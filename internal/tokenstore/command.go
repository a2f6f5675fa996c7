package tokenstore

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	tokensCommandUseConstant              = "tokens"
	tokensCommandShortDescriptionConstant = "Inspect and seed the access token store"
	tokensCommandLongDescriptionConstant  = "tokens reads and writes GitHub access tokens in the configured token store backend."
	putCommandUseConstant                 = "put <user-uid> <token>"
	putCommandShortDescriptionConstant    = "Store a GitHub access token for a user"
	getCommandUseConstant                 = "get <user-uid>"
	getCommandShortDescriptionConstant    = "Show the masked GitHub access token stored for a user"
	putArgumentCountConstant              = 2
	getArgumentCountConstant              = 1
	openStoreErrorTemplateConstant        = "open token store: %w"
	putTokenErrorTemplateConstant         = "store access token: %w"
	getTokenErrorTemplateConstant         = "read access token: %w"
	closeStoreFailedMessageConstant       = "closing token store failed"
	tokenStoredOutputTemplateConstant     = "stored access token for %s\n"
	tokenOutputTemplateConstant           = "%s\t%s\n"
	maskCharacterConstant                 = "*"
	maskVisiblePrefixLengthConstant       = 4
	maskVisibleSuffixLengthConstant       = 4
	maskMinimumRevealLengthConstant       = 12
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current token store configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the tokens command hierarchy.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the tokens command with put and get subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	tokensCommand := &cobra.Command{
		Use:   tokensCommandUseConstant,
		Short: tokensCommandShortDescriptionConstant,
		Long:  tokensCommandLongDescriptionConstant,
	}

	putCommand := &cobra.Command{
		Use:   putCommandUseConstant,
		Short: putCommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(putArgumentCountConstant),
		RunE:  builder.runPut,
	}

	getCommand := &cobra.Command{
		Use:   getCommandUseConstant,
		Short: getCommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(getArgumentCountConstant),
		RunE:  builder.runGet,
	}

	tokensCommand.AddCommand(putCommand, getCommand)
	return tokensCommand, nil
}

func (builder *CommandBuilder) runPut(command *cobra.Command, arguments []string) error {
	store, logger, openError := builder.openStore(command)
	if openError != nil {
		return openError
	}
	defer builder.closeStore(store, logger)

	writer, supportsWrites := store.(Writer)
	if !supportsWrites {
		backend, _ := ParseBackend(builder.resolveConfiguration().Sanitize().Backend)
		return fmt.Errorf(putTokenErrorTemplateConstant, WriteUnsupportedError{Backend: backend})
	}
	if putError := writer.PutAccessToken(command.Context(), arguments[0], arguments[1]); putError != nil {
		return fmt.Errorf(putTokenErrorTemplateConstant, putError)
	}

	_, writeError := fmt.Fprintf(command.OutOrStdout(), tokenStoredOutputTemplateConstant, strings.TrimSpace(arguments[0]))
	return writeError
}

func (builder *CommandBuilder) runGet(command *cobra.Command, arguments []string) error {
	store, logger, openError := builder.openStore(command)
	if openError != nil {
		return openError
	}
	defer builder.closeStore(store, logger)

	accessToken, lookupError := store.AccessToken(command.Context(), arguments[0])
	if lookupError != nil {
		return fmt.Errorf(getTokenErrorTemplateConstant, lookupError)
	}

	_, writeError := fmt.Fprintf(command.OutOrStdout(), tokenOutputTemplateConstant, strings.TrimSpace(arguments[0]), MaskToken(accessToken))
	return writeError
}

func (builder *CommandBuilder) openStore(command *cobra.Command) (Store, *zap.Logger, error) {
	logger := builder.resolveLogger()
	store, openError := Open(command.Context(), builder.resolveConfiguration(), logger)
	if openError != nil {
		return nil, logger, fmt.Errorf(openStoreErrorTemplateConstant, openError)
	}
	return store, logger, nil
}

func (builder *CommandBuilder) closeStore(store Store, logger *zap.Logger) {
	if closeError := store.Close(); closeError != nil {
		logger.Warn(closeStoreFailedMessageConstant, zap.Error(closeError))
	}
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

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

// MaskToken hides all but the edges of a token. Short tokens are fully masked.
func MaskToken(accessToken string) string {
	if len(accessToken) < maskMinimumRevealLengthConstant {
		return strings.Repeat(maskCharacterConstant, len(accessToken))
	}
	hiddenLength := len(accessToken) - maskVisiblePrefixLengthConstant - maskVisibleSuffixLengthConstant
	return accessToken[:maskVisiblePrefixLengthConstant] +
		strings.Repeat(maskCharacterConstant, hiddenLength) +
		accessToken[len(accessToken)-maskVisibleSuffixLengthConstant:]
}
