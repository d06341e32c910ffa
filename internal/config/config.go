// Package config provides configuration management for the logdex engines.
// It holds the per-run configuration structs handed to the indexer and
// exporter, plus common settings with environment variable overrides
// (LOGDEX_ prefix).
package config

import (
	"github.com/logdex/logdex/internal/constants"
)

const (
	// DefaultLogLevel specifies the default log level (obviously)
	DefaultLogLevel string = "info"
)

// Common holds settings shared by all engines. This global variable
// provides access to shared configuration after Setup has run.
var Common *CommonConfig

// CommonConfig carries the tunables that apply to every run. All fields
// can be overridden through the environment.
type CommonConfig struct {
	// ChunkSize is the chunk size in lines used when a run does not
	// specify one.
	ChunkSize uint64 `env:"LOGDEX_CHUNK_SIZE"`
	// LogLevel controls the logger verbosity (debug, info, warn, error).
	LogLevel string `env:"LOGDEX_LOG_LEVEL"`
	// SessionDir overrides the directory session files are resolved in.
	// Empty means <home>/.chipmunk/streams.
	SessionDir string `env:"LOGDEX_SESSION_DIR"`
}

func newDefaultCommonConfig() *CommonConfig {
	return &CommonConfig{
		ChunkSize: constants.DefaultChunkSize,
		LogLevel:  DefaultLogLevel,
	}
}

// Setup initializes the configuration from defaults and the environment
// and makes it available via the Common global.
func Setup() error {
	common := newDefaultCommonConfig()
	if err := parseEnv(common); err != nil {
		return err
	}
	Common = common
	return nil
}
