// Package utils exposes reusable helpers shared by the chronos commands.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// CHRONOS_* environment variables, and zap logging, plus the command context
// accessor used to hand bootstrap metadata to subcommands.
package utils
