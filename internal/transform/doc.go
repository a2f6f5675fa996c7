// Package transform rewrites fetched text through a single-completion language model.
//
// ContentTransformer never returns an error: a failed or empty completion yields
// TransformResult with the fixed fallback text and Degraded set, and the cause is
// logged. Generators for OpenAI chat completions and Gemini are provided.
package transform
