// Package pipeline orchestrates the file workflows exposed over HTTP.
//
// Service validates a request, resolves the caller's GitHub token, fetches the
// requested contents and, for ProcessFiles, rewrites each fetched text. Failures that
// abort a request surface as ValidationError, NotFoundError or UpstreamError; per-file
// failures do not.
package pipeline
