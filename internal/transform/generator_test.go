package transform_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/chronos/internal/transform"
)

const (
	testAPIKeyConstant                 = "sk-test"
	testOpenAIRoutePattern             = "POST /v1/chat/completions"
	testOpenAIBasePathConstant         = "/v1"
	testOpenAISuccessBodyConstant      = `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"rewritten by openai"},"finish_reason":"stop"}]}`
	testOpenAIEmptyChoicesConstant     = `{"id":"chatcmpl-2","object":"chat.completion","model":"gpt-3.5-turbo","choices":[]}`
	testOpenAIEmptyContentConstant     = `{"id":"chatcmpl-3","object":"chat.completion","model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"stop"}]}`
	testOpenAIErrorBodyConstant        = `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`
	testGeminiSuccessBodyConstant      = `{"candidates":[{"content":{"role":"model","parts":[{"text":"rewritten by gemini"}]}}]}`
	testGeminiEmptyBodyConstant        = `{"candidates":[]}`
	testGeminiEmptyTextBodyConstant    = `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`
	testGeminiErrorBodyConstant        = `{"error":{"code":500,"message":"backend failure","status":"INTERNAL"}}`
	testGeminiMethodSuffixConstant     = ":generateContent"
	testGeminiCustomModelConstant      = "gemini-test-model"
	testOpenAICompletionConstant       = "rewritten by openai"
	testGeminiCompletionConstant       = "rewritten by gemini"
	testPromptConstant                 = "prompt body"
	testContentTypeHeaderConstant      = "Content-Type"
	testJSONContentTypeConstant        = "application/json"
	testCaseOpenAISuccess              = "openai_success"
	testCaseOpenAIEmptyChoices         = "openai_empty_choices"
	testCaseOpenAIEmptyContent         = "openai_empty_content"
	testCaseGeminiEmptyText            = "gemini_empty_text"
	testCaseOpenAIUpstreamError        = "openai_upstream_error"
	testCaseGeminiSuccess              = "gemini_success"
	testCaseGeminiEmptyCandidates      = "gemini_empty_candidates"
	testCaseGeminiUpstreamError        = "gemini_upstream_error"
	testCaseProviderDefaults           = "provider_defaults"
	testCaseProviderGeminiDefaults     = "gemini_provider_defaults"
	testCaseProviderGeminiFromDefaults = "gemini_provider_over_default_configuration"
	testCaseProviderExplicitModel      = "explicit_model_kept"
	testUnknownProviderConstant        = "anthropic-compatible"
)

type openAIRequestRecord struct {
	Model string `json:"model"`
	N     int    `json:"n"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func respondJSON(responseWriter http.ResponseWriter, statusCode int, body string) {
	responseWriter.Header().Set(testContentTypeHeaderConstant, testJSONContentTypeConstant)
	responseWriter.WriteHeader(statusCode)
	_, _ = responseWriter.Write([]byte(body))
}

func TestOpenAIGeneratorGenerate(testInstance *testing.T) {
	testCases := []struct {
		name               string
		statusCode         int
		responseBody       string
		expectedCompletion string
		expectError        bool
		expectedError      error
	}{
		{
			name:               testCaseOpenAISuccess,
			statusCode:         http.StatusOK,
			responseBody:       testOpenAISuccessBodyConstant,
			expectedCompletion: testOpenAICompletionConstant,
		},
		{
			name:          testCaseOpenAIEmptyChoices,
			statusCode:    http.StatusOK,
			responseBody:  testOpenAIEmptyChoicesConstant,
			expectError:   true,
			expectedError: transform.ErrEmptyCompletion,
		},
		{
			name:          testCaseOpenAIEmptyContent,
			statusCode:    http.StatusOK,
			responseBody:  testOpenAIEmptyContentConstant,
			expectError:   true,
			expectedError: transform.ErrEmptyCompletion,
		},
		{
			name:         testCaseOpenAIUpstreamError,
			statusCode:   http.StatusUnauthorized,
			responseBody: testOpenAIErrorBodyConstant,
			expectError:  true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var recordMutex sync.Mutex
			var recordedRequest openAIRequestRecord
			var recordedAuthorization string
			mux := http.NewServeMux()
			mux.HandleFunc(testOpenAIRoutePattern, func(responseWriter http.ResponseWriter, request *http.Request) {
				recordMutex.Lock()
				_ = json.NewDecoder(request.Body).Decode(&recordedRequest)
				recordedAuthorization = request.Header.Get("Authorization")
				recordMutex.Unlock()
				respondJSON(responseWriter, testCase.statusCode, testCase.responseBody)
			})
			server := httptest.NewServer(mux)
			testInstance.Cleanup(server.Close)

			generator := transform.NewOpenAIGenerator(transform.Configuration{
				APIKey:  testAPIKeyConstant,
				BaseURL: server.URL + testOpenAIBasePathConstant,
			}, server.Client())

			completion, generateError := generator.Generate(context.Background(), testPromptConstant)
			if testCase.expectError {
				require.Error(testInstance, generateError)
				if testCase.expectedError != nil {
					require.ErrorIs(testInstance, generateError, testCase.expectedError)
				}
			} else {
				require.NoError(testInstance, generateError)
				require.Equal(testInstance, testCase.expectedCompletion, completion)
			}

			recordMutex.Lock()
			defer recordMutex.Unlock()
			require.Equal(testInstance, "gpt-3.5-turbo", recordedRequest.Model)
			require.Equal(testInstance, 1, recordedRequest.N)
			require.Len(testInstance, recordedRequest.Messages, 1)
			require.Equal(testInstance, "user", recordedRequest.Messages[0].Role)
			require.Equal(testInstance, testPromptConstant, recordedRequest.Messages[0].Content)
			require.Equal(testInstance, "Bearer "+testAPIKeyConstant, recordedAuthorization)
		})
	}
}

func TestGeminiGeneratorGenerate(testInstance *testing.T) {
	testCases := []struct {
		name               string
		statusCode         int
		responseBody       string
		expectedCompletion string
		expectError        bool
		expectedError      error
	}{
		{
			name:               testCaseGeminiSuccess,
			statusCode:         http.StatusOK,
			responseBody:       testGeminiSuccessBodyConstant,
			expectedCompletion: testGeminiCompletionConstant,
		},
		{
			name:          testCaseGeminiEmptyCandidates,
			statusCode:    http.StatusOK,
			responseBody:  testGeminiEmptyBodyConstant,
			expectError:   true,
			expectedError: transform.ErrEmptyCompletion,
		},
		{
			name:          testCaseGeminiEmptyText,
			statusCode:    http.StatusOK,
			responseBody:  testGeminiEmptyTextBodyConstant,
			expectError:   true,
			expectedError: transform.ErrEmptyCompletion,
		},
		{
			name:         testCaseGeminiUpstreamError,
			statusCode:   http.StatusInternalServerError,
			responseBody: testGeminiErrorBodyConstant,
			expectError:  true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var recordMutex sync.Mutex
			var requestedPath string
			server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				recordMutex.Lock()
				requestedPath = request.URL.Path
				recordMutex.Unlock()
				respondJSON(responseWriter, testCase.statusCode, testCase.responseBody)
			}))
			testInstance.Cleanup(server.Close)

			generator, constructError := transform.NewGeminiGenerator(context.Background(), transform.Configuration{
				Provider: string(transform.ProviderGemini),
				Model:    testGeminiCustomModelConstant,
				APIKey:   testAPIKeyConstant,
				BaseURL:  server.URL + "/",
			}, server.Client())
			require.NoError(testInstance, constructError)

			completion, generateError := generator.Generate(context.Background(), testPromptConstant)
			if testCase.expectError {
				require.Error(testInstance, generateError)
				if testCase.expectedError != nil {
					require.ErrorIs(testInstance, generateError, testCase.expectedError)
				}
			} else {
				require.NoError(testInstance, generateError)
				require.Equal(testInstance, testCase.expectedCompletion, completion)
			}

			recordMutex.Lock()
			defer recordMutex.Unlock()
			require.True(testInstance, strings.HasSuffix(requestedPath, testGeminiCustomModelConstant+testGeminiMethodSuffixConstant), requestedPath)
		})
	}
}

func geminiFromDefaults() transform.Configuration {
	configuration := transform.DefaultConfiguration()
	configuration.Provider = "gemini"
	return configuration
}

func TestConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration transform.Configuration
		expectedModel string
		expectedName  string
	}{
		{
			name:          testCaseProviderDefaults,
			configuration: transform.Configuration{},
			expectedModel: "gpt-3.5-turbo",
			expectedName:  "openai",
		},
		{
			name:          testCaseProviderGeminiDefaults,
			configuration: transform.Configuration{Provider: " Gemini "},
			expectedModel: "gemini-2.0-flash",
			expectedName:  "gemini",
		},
		{
			name:          testCaseProviderGeminiFromDefaults,
			configuration: geminiFromDefaults(),
			expectedModel: "gemini-2.0-flash",
			expectedName:  "gemini",
		},
		{
			name:          testCaseProviderExplicitModel,
			configuration: transform.Configuration{Provider: "openai", Model: " gpt-4o-mini "},
			expectedModel: "gpt-4o-mini",
			expectedName:  "openai",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			sanitized := testCase.configuration.Sanitize()
			require.Equal(testInstance, testCase.expectedModel, sanitized.Model)
			require.Equal(testInstance, testCase.expectedName, sanitized.Provider)
			require.Positive(testInstance, sanitized.RequestTimeout)
		})
	}
}

func TestNewGeneratorSelectsProvider(testInstance *testing.T) {
	openAIGenerator, openAIError := transform.NewGenerator(context.Background(), transform.DefaultConfiguration(), nil)
	require.NoError(testInstance, openAIError)
	require.IsType(testInstance, &transform.OpenAIGenerator{}, openAIGenerator)

	geminiGenerator, geminiError := transform.NewGenerator(context.Background(), transform.Configuration{Provider: "gemini", APIKey: testAPIKeyConstant}, nil)
	require.NoError(testInstance, geminiError)
	require.IsType(testInstance, &transform.GeminiGenerator{}, geminiGenerator)

	unknownGenerator, unknownError := transform.NewGenerator(context.Background(), transform.Configuration{Provider: testUnknownProviderConstant}, nil)
	require.Error(testInstance, unknownError)
	require.Nil(testInstance, unknownGenerator)
}
