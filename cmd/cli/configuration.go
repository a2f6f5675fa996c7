package cli

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/temirov/chronos/internal/server"
	"github.com/temirov/chronos/internal/utils"
)

const (
	commonConfigurationKeyConstant     = "common"
	commonLogLevelConfigKeyConstant    = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant   = commonConfigurationKeyConstant + ".log_format"
	currentDirectorySearchPathConstant = "."
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// ApplicationConfiguration describes the persisted configuration for every command.
type ApplicationConfiguration struct {
	server.ServiceConfiguration `mapstructure:",squash"`

	Common ApplicationCommonConfiguration `mapstructure:"common"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// EmbeddedDefaultConfiguration returns a copy of the embedded defaults and their format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	duplicatedContent := make([]byte, len(embeddedDefaultConfigurationContent))
	copy(duplicatedContent, embeddedDefaultConfigurationContent)
	return duplicatedContent, configurationTypeConstant
}

func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range server.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}

// configurationSearchPaths lists the working directory and the per-user configuration directory.
func configurationSearchPaths() []string {
	searchPaths := []string{currentDirectorySearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}
