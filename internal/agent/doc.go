// Package agent relays free-form queries to a locally running agent process
// and returns its JSON answer unchanged.
package agent
