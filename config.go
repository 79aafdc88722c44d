package wirerpc

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the shared configuration shape for both Server and Client.
type Config struct {
	// IOServiceNumber is the fixed reactor-loop count. Must be >= 1.
	IOServiceNumber int

	// WorkerThreads is the bounded worker-pool size. Must be >= 1.
	WorkerThreads int

	// Timeout bounds the client's dial of each candidate endpoint. Zero
	// means no deadline. Reads and writes on a live connection have no
	// deadline.
	Timeout time.Duration

	// Logger receives all component log output. Nil uses Default().
	Logger *Logger

	// DrainPendingOnClose controls what happens to parked response
	// callbacks when their connection closes: when true, Connection.Close
	// drains the pending-response table and invokes each callback with a
	// connection-closed envelope; when false (the default) they are simply
	// discarded and the caller's done never runs.
	DrainPendingOnClose bool
}

// DefaultConfig returns a Config with one reactor loop, four workers, and
// no deadline — a conservative single-process default.
func DefaultConfig() *Config {
	return &Config{
		IOServiceNumber: 1,
		WorkerThreads:   4,
		Logger:          Default(),
	}
}

// LoadConfig decodes a loosely typed source (e.g. parsed ahead of time from
// a config file by the caller) into a Config via mitchellh/mapstructure.
// Callers are responsible for producing the map; no file format is implied.
func LoadConfig(src map[string]any) (*Config, error) {
	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, &Error{Op: "LoadConfig", Code: ErrRegistration, Inner: err}
	}
	if err := dec.Decode(src); err != nil {
		return nil, &Error{Op: "LoadConfig", Code: ErrRegistration, Inner: err}
	}
	if cfg.IOServiceNumber < 1 {
		cfg.IOServiceNumber = 1
	}
	if cfg.WorkerThreads < 1 {
		cfg.WorkerThreads = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = Default()
	}
	return cfg, nil
}
