// Package githubauth locates a process-wide GitHub token for development
// deployments that have no per-user token store.
package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, in preference order.
const (
	EnvChronosGitHubToken = "CHRONOS_GITHUB_TOKEN"
	EnvGitHubCLIToken     = "GH_TOKEN"
	EnvGitHubToken        = "GITHUB_TOKEN"
	EnvGitHubAPIToken     = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvChronosGitHubToken,
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// TokenPreference returns the consulted variable names in preference order.
func TokenPreference() []string {
	preference := make([]string, len(tokenPreference))
	copy(preference, tokenPreference)
	return preference
}

// ResolveToken returns the first non-empty token observed in the provided
// environment map, falling back to the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	return ResolveTokenWithLookup(environment, os.LookupEnv)
}

// ResolveTokenWithLookup behaves like ResolveToken with an injectable process lookup.
func ResolveTokenWithLookup(environment map[string]string, environmentLookup EnvironmentLookup) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	if environmentLookup == nil {
		return "", false
	}
	for _, key := range tokenPreference {
		if value, ok := environmentLookup(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
