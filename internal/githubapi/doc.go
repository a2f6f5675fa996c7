// Package githubapi talks to the GitHub REST API on behalf of a user token.
//
// ClientFactory builds go-github clients that share one HTTP transport.
// ContentFetcher reads contents-API resources, decodes their base64 payload,
// and reports unreadable locators as DroppedLocator values rather than
// errors. BranchCommitter creates a branch from a base head and commits a
// single file to it.
package githubapi
