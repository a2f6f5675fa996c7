package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	promptTemplateConstant          = "Adjust the following content so that in your response it says 'This content has been updated by AI' then follow with the content:\n\n%s"
	transformFailedMessageConstant  = "content transform degraded"
	logFieldInputLengthConstant     = "input_length"
	emptyCompletionMessageConstant  = "completion returned no candidates"
	generatorMissingMessageConstant = "generator not configured"
)

// FallbackText replaces the transformed text when generation fails.
const FallbackText = "Failed to modify content with OpenAI."

var (
	// ErrEmptyCompletion indicates the model returned no usable candidate.
	ErrEmptyCompletion = errors.New(emptyCompletionMessageConstant)
	// ErrGeneratorNotConfigured indicates the transformer was built without a generator.
	ErrGeneratorNotConfigured = errors.New(generatorMissingMessageConstant)
)

// Generator produces one completion for a prompt.
type Generator interface {
	Generate(generateContext context.Context, prompt string) (string, error)
}

// TransformResult carries the transformed text. Degraded reports that FallbackText was
// substituted, and Cause holds the generation failure in that case.
type TransformResult struct {
	Text     string
	Degraded bool
	Cause    error
}

// BuildPrompt embeds the text in the fixed rewrite instruction.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplateConstant, text)
}

// ContentTransformer applies the rewrite instruction to individual texts.
type ContentTransformer struct {
	generator      Generator
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewContentTransformer builds a transformer. A non-positive timeout disables the per-call bound.
func NewContentTransformer(generator Generator, requestTimeout time.Duration, logger *zap.Logger) *ContentTransformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentTransformer{generator: generator, requestTimeout: requestTimeout, logger: logger}
}

// Transform requests one completion for text.
func (transformer *ContentTransformer) Transform(transformContext context.Context, text string) TransformResult {
	if transformer.generator == nil {
		return transformer.degraded(text, ErrGeneratorNotConfigured)
	}

	generateContext := transformContext
	if transformer.requestTimeout > 0 {
		var cancel context.CancelFunc
		generateContext, cancel = context.WithTimeout(transformContext, transformer.requestTimeout)
		defer cancel()
	}

	completion, generateError := transformer.generator.Generate(generateContext, BuildPrompt(text))
	if generateError != nil {
		return transformer.degraded(text, generateError)
	}
	if len(completion) == 0 {
		return transformer.degraded(text, ErrEmptyCompletion)
	}
	return TransformResult{Text: completion}
}

func (transformer *ContentTransformer) degraded(text string, cause error) TransformResult {
	transformer.logger.Warn(
		transformFailedMessageConstant,
		zap.Int(logFieldInputLengthConstant, len(text)),
		zap.Error(cause),
	)
	return TransformResult{Text: FallbackText, Degraded: true, Cause: cause}
}
