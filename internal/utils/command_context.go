package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	environmentPrefixContextKeyConstant     = commandContextKey("environmentPrefix")
)

type commandContextKey string

// CommandContextAccessor manages bootstrap values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithLoadedConfiguration attaches configuration metadata to the provided context.
func (accessor CommandContextAccessor) WithLoadedConfiguration(parentContext context.Context, loadedConfiguration LoadedConfiguration) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	updatedContext := context.WithValue(parentContext, configurationFilePathContextKeyConstant, loadedConfiguration.ConfigFileUsed)
	return context.WithValue(updatedContext, environmentPrefixContextKeyConstant, loadedConfiguration.EnvironmentPrefix)
}

// LoadedConfiguration extracts configuration metadata from the provided context.
func (accessor CommandContextAccessor) LoadedConfiguration(executionContext context.Context) (LoadedConfiguration, bool) {
	if executionContext == nil {
		return LoadedConfiguration{}, false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return LoadedConfiguration{}, false
	}
	environmentPrefix, _ := executionContext.Value(environmentPrefixContextKeyConstant).(string)
	return LoadedConfiguration{ConfigFileUsed: configurationFilePath, EnvironmentPrefix: environmentPrefix}, true
}
