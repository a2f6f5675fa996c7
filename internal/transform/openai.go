package transform

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

const singleCompletionCountConstant = 1

// OpenAIGenerator requests chat completions with one user message.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a chat-completion generator. A blank BaseURL targets the public API.
func NewOpenAIGenerator(configuration Configuration, httpClient *http.Client) *OpenAIGenerator {
	sanitized := configuration.Sanitize()
	clientConfiguration := openai.DefaultConfig(sanitized.APIKey)
	if len(sanitized.BaseURL) > 0 {
		clientConfiguration.BaseURL = sanitized.BaseURL
	}
	if httpClient != nil {
		clientConfiguration.HTTPClient = httpClient
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(clientConfiguration), model: sanitized.Model}
}

// Generate returns the first choice of a single completion.
func (generator *OpenAIGenerator) Generate(generateContext context.Context, prompt string) (string, error) {
	response, completionError := generator.client.CreateChatCompletion(generateContext, openai.ChatCompletionRequest{
		Model: generator.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		N: singleCompletionCountConstant,
	})
	if completionError != nil {
		return "", completionError
	}
	if len(response.Choices) == 0 || len(response.Choices[0].Message.Content) == 0 {
		return "", ErrEmptyCompletion
	}
	return response.Choices[0].Message.Content, nil
}
