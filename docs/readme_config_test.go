package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/chronos/internal/server"
	"github.com/temirov/chronos/internal/tokenstore"
	"github.com/temirov/chronos/internal/transform"
	"github.com/temirov/chronos/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	readmeSnippetFileNameConstant    = "config.yaml"
	parentDirectoryReferenceConstant = ".."
	readmeEnvironmentPrefixConstant  = "CHRONOS_README"
	readmeConfigurationNameConstant  = "config"
	readmeConfigurationTypeConstant  = "yaml"
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	unexpectedSectionMessageTemplate = "unexpected section %s"
)

var expectedConfigurationSections = map[string]struct{}{
	"common":      {},
	"server":      {},
	"token_store": {},
	"github":      {},
	"transformer": {},
	"mail":        {},
	"agent":       {},
}

func readReadmeSnippet(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}

func TestReadmeConfigurationSectionsAreKnown(testInstance *testing.T) {
	snippetContent := readReadmeSnippet(testInstance)

	var sections map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &sections))
	require.Len(testInstance, sections, len(expectedConfigurationSections))
	for sectionName := range sections {
		_, expected := expectedConfigurationSections[sectionName]
		require.Truef(testInstance, expected, unexpectedSectionMessageTemplate, sectionName)
	}
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippetContent := readReadmeSnippet(testInstance)
	snippetPath := filepath.Join(testInstance.TempDir(), readmeSnippetFileNameConstant)
	require.NoError(testInstance, os.WriteFile(snippetPath, []byte(snippetContent), 0o600))

	loader := utils.NewConfigurationLoader(
		readmeConfigurationNameConstant,
		readmeConfigurationTypeConstant,
		readmeEnvironmentPrefixConstant,
		nil,
	)
	var configuration server.ServiceConfiguration
	loadedConfiguration, loadError := loader.LoadConfiguration(snippetPath, server.DefaultConfigurationValues(), &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, snippetPath, loadedConfiguration.ConfigFileUsed)

	backend, backendError := tokenstore.ParseBackend(configuration.TokenStore.Backend)
	require.NoError(testInstance, backendError)
	require.Equal(testInstance, tokenstore.BackendSQLite, backend)

	provider, providerError := transform.ParseProvider(configuration.Transformer.Provider)
	require.NoError(testInstance, providerError)
	require.Equal(testInstance, transform.ProviderOpenAI, provider)

	require.Equal(testInstance, []string{"https://app.example.com"}, configuration.Server.CORS.AllowedOrigins)
	require.Equal(testInstance, []string{"team@example.com"}, configuration.Mail.Recipients)
	require.Equal(testInstance, "http://localhost:8000", configuration.Agent.URL)
}
