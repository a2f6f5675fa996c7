package server

import (
	"time"
)

const (
	responseWriteMarginConstant = 5 * time.Second
)

// ProcessingBudget is the share of the write timeout a ProcessFiles call may spend
// before pending files are dropped or degraded, leaving room to write the response.
func ProcessingBudget(configuration ServiceConfiguration) time.Duration {
	writeTimeout := configuration.Server.Sanitize().WriteTimeout
	if writeTimeout > 2*responseWriteMarginConstant {
		return writeTimeout - responseWriteMarginConstant
	}
	return writeTimeout / 2
}

// ProcessFilesCapacity is the number of files one process-files request can fetch and
// transform within ProcessingBudget when every upstream call runs to its timeout.
// Fetches and transforms each run in rounds of github.max_concurrent_requests.
func ProcessFilesCapacity(configuration ServiceConfiguration) int {
	githubConfiguration := configuration.GitHub.Sanitize()
	transformerConfiguration := configuration.Transformer.Sanitize()

	roundDuration := githubConfiguration.RequestTimeout + transformerConfiguration.RequestTimeout
	rounds := int(ProcessingBudget(configuration) / roundDuration)
	return rounds * githubConfiguration.MaxConcurrentRequests
}
