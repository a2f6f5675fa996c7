package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/chronos/internal/server"
)

const (
	testUserIdentifierConstant  = "user-123"
	testAccessTokenConstant     = "gho_assembly_token"
	testReadmePathConstant      = "/repos/owner/example/contents/README.md"
	testMissingPathConstant     = "/repos/owner/example/contents/missing.md"
	testReadmeTextConstant      = "# Example\n"
	testCompletionConstant      = "This content has been updated by AI\n# Example"
	testOpenAIRouteConstant     = "POST /v1/chat/completions"
	testAgentRouteConstant      = "POST /agent"
	testAgentAnswerConstant     = `{"output":"agent says hi"}`
	testTokenFileNameConstant   = "tokens.yaml"
	testAssembledMessage        = "service components assembled"
	testAuthorizationHeaderName = "Authorization"
)

type upstreamFixture struct {
	server         *httptest.Server
	authorizations []string
}

func newUpstreamFixture(testInstance *testing.T) *upstreamFixture {
	testInstance.Helper()
	fixture := &upstreamFixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+testReadmePathConstant, func(responseWriter http.ResponseWriter, request *http.Request) {
		fixture.authorizations = append(fixture.authorizations, request.Header.Get(testAuthorizationHeaderName))
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(testReadmeTextConstant)),
		})
	})
	mux.HandleFunc("GET "+testMissingPathConstant, func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		responseWriter.WriteHeader(http.StatusNotFound)
		_, _ = responseWriter.Write([]byte(`{"message":"Not Found"}`))
	})
	mux.HandleFunc(testOpenAIRouteConstant, func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": testCompletionConstant},
				"finish_reason": "stop",
			}},
		})
	})
	mux.HandleFunc(testAgentRouteConstant, func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		_, _ = responseWriter.Write([]byte(testAgentAnswerConstant))
	})
	fixture.server = httptest.NewServer(mux)
	testInstance.Cleanup(fixture.server.Close)
	return fixture
}

func newServiceConfiguration(testInstance *testing.T, upstreamURL string) server.ServiceConfiguration {
	testInstance.Helper()
	tokenFilePath := filepath.Join(testInstance.TempDir(), testTokenFileNameConstant)
	tokenFileContents := strings.Join([]string{testUserIdentifierConstant + ":", "  githubAccessToken: " + testAccessTokenConstant, ""}, "\n")
	require.NoError(testInstance, os.WriteFile(tokenFilePath, []byte(tokenFileContents), 0o600))

	configuration := server.DefaultServiceConfiguration()
	configuration.TokenStore.Backend = "file"
	configuration.TokenStore.File.Path = tokenFilePath
	configuration.GitHub.BaseURL = upstreamURL + "/"
	configuration.Transformer.BaseURL = upstreamURL + "/v1"
	configuration.Transformer.APIKey = "sk-test"
	configuration.Mail.Sender = "notifications@example.com"
	configuration.Mail.Recipients = []string{"team@example.com"}
	configuration.Agent.URL = upstreamURL + "/agent"
	return configuration
}

func TestAssembleServesProcessFilesEndToEnd(testInstance *testing.T) {
	upstream := newUpstreamFixture(testInstance)
	observedCore, observedLogs := observer.New(zap.InfoLevel)

	components, assembleError := server.Assemble(context.Background(), newServiceConfiguration(testInstance, upstream.server.URL), upstream.server.Client(), zap.New(observedCore))
	require.NoError(testInstance, assembleError)
	testInstance.Cleanup(func() { require.NoError(testInstance, components.Close()) })
	assembledEntries := observedLogs.FilterMessage(testAssembledMessage).All()
	require.Len(testInstance, assembledEntries, 1)
	require.Equal(testInstance, int64(8), assembledEntries[0].ContextMap()["process_files_capacity"])
	require.Empty(testInstance, observedLogs.FilterLevelExact(zap.WarnLevel).All())

	requestBody := `{"userUid":"` + testUserIdentifierConstant + `","fileUrls":["` + upstream.server.URL + testReadmePathConstant + `","` + upstream.server.URL + testMissingPathConstant + `"]}`
	request := httptest.NewRequest(http.MethodPost, "/api/process-files", strings.NewReader(requestBody))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	components.Handler.ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	var response struct {
		Message          string   `json:"message"`
		ModifiedContents []string `json:"modifiedContents"`
		DroppedURLs      []string `json:"droppedUrls"`
	}
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(testInstance, "Files processed successfully", response.Message)
	require.Equal(testInstance, []string{testCompletionConstant}, response.ModifiedContents)
	require.Equal(testInstance, []string{upstream.server.URL + testMissingPathConstant}, response.DroppedURLs)
	require.Equal(testInstance, []string{"Bearer " + testAccessTokenConstant}, upstream.authorizations)
}

func TestAssembleWarnsWhenWriteTimeoutIsTight(testInstance *testing.T) {
	upstream := newUpstreamFixture(testInstance)
	observedCore, observedLogs := observer.New(zap.InfoLevel)
	configuration := newServiceConfiguration(testInstance, upstream.server.URL)
	configuration.Server.WriteTimeout = 8 * time.Second

	components, assembleError := server.Assemble(context.Background(), configuration, upstream.server.Client(), zap.New(observedCore))
	require.NoError(testInstance, assembleError)
	testInstance.Cleanup(func() { require.NoError(testInstance, components.Close()) })

	warningEntries := observedLogs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(testInstance, warningEntries, 1)
	require.Equal(testInstance, 4*time.Second, warningEntries[0].ContextMap()["processing_budget"])
}

func TestAssembleRelaysAgentQueries(testInstance *testing.T) {
	upstream := newUpstreamFixture(testInstance)

	components, assembleError := server.Assemble(context.Background(), newServiceConfiguration(testInstance, upstream.server.URL), upstream.server.Client(), nil)
	require.NoError(testInstance, assembleError)
	testInstance.Cleanup(func() { require.NoError(testInstance, components.Close()) })

	request := httptest.NewRequest(http.MethodPost, "/api/query-agent", strings.NewReader(`{"input":"hello"}`))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	components.Handler.ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.JSONEq(testInstance, testAgentAnswerConstant, recorder.Body.String())
}

func TestAssembleRejectsInvalidConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name   string
		mutate func(configuration *server.ServiceConfiguration)
	}{
		{
			name: "unknown_token_store_backend",
			mutate: func(configuration *server.ServiceConfiguration) {
				configuration.TokenStore.Backend = "memcached"
			},
		},
		{
			name: "unknown_transformer_provider",
			mutate: func(configuration *server.ServiceConfiguration) {
				configuration.Transformer.Provider = "unknown"
			},
		},
		{
			name: "invalid_agent_url",
			mutate: func(configuration *server.ServiceConfiguration) {
				configuration.Agent.URL = "ftp://agent.example.com"
			},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configuration := newServiceConfiguration(testInstance, "http://127.0.0.1:1")
			testCase.mutate(&configuration)

			components, assembleError := server.Assemble(context.Background(), configuration, nil, nil)
			require.Error(testInstance, assembleError)
			require.Nil(testInstance, components)
		})
	}
}
