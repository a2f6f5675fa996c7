// Package cli constructs the chronos command-line interface, wiring the
// Cobra command hierarchy, the configuration loader, and structured logging.
// The serve command runs the HTTP API; the tokens commands seed and inspect
// the access token store.
package cli
