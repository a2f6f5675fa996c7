package transform

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const geminiClientErrorTemplateConstant = "failed to create gemini client: %w"

// GeminiGenerator requests content from the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a Gemini generator. The API key is required by the client.
func NewGeminiGenerator(constructContext context.Context, configuration Configuration, httpClient *http.Client) (*GeminiGenerator, error) {
	sanitized := configuration.Sanitize()
	clientConfiguration := &genai.ClientConfig{
		APIKey:  sanitized.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if len(sanitized.BaseURL) > 0 {
		clientConfiguration.HTTPOptions = genai.HTTPOptions{BaseURL: sanitized.BaseURL}
	}
	if httpClient != nil {
		clientConfiguration.HTTPClient = httpClient
	}

	client, clientError := genai.NewClient(constructContext, clientConfiguration)
	if clientError != nil {
		return nil, fmt.Errorf(geminiClientErrorTemplateConstant, clientError)
	}
	return &GeminiGenerator{client: client, model: sanitized.Model}, nil
}

// Generate returns the text of the first candidate.
func (generator *GeminiGenerator) Generate(generateContext context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	response, generateError := generator.client.Models.GenerateContent(generateContext, generator.model, contents, nil)
	if generateError != nil {
		return "", generateError
	}
	if response == nil || len(response.Candidates) == 0 {
		return "", ErrEmptyCompletion
	}
	completion := response.Text()
	if len(completion) == 0 {
		return "", ErrEmptyCompletion
	}
	return completion, nil
}
