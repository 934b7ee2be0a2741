// Package hostconfig loads the plugin host's runtime configuration.
//
// Shaped after modeld-go-1's internal/config.Load: a small typed struct
// decoded from a single file, zero values meaning "use the package
// default," with the defaults applied explicitly in Load rather than
// relying on zero-value luck.
package hostconfig

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds process-wide defaults for plugin host instances. Per-instance
// overrides (sample rate, block size) still come from the embedding engine
// at Open/allocate time; these are the fallbacks and tunables that have no
// natural home in the control surface.
type Config struct {
	// DefaultSampleRate is used until the embedding engine supplies one.
	DefaultSampleRate float64 `toml:"default_sample_rate"`
	// DefaultBlockSize is the largest block next() should expect.
	DefaultBlockSize int `toml:"default_block_size"`
	// CommandQueueDepth bounds the number of in-flight worker Commands per instance.
	CommandQueueDepth int `toml:"command_queue_depth"`
	// StreamPacketBudget is a packet budget for streamed downloads. It is
	// loaded and defaulted here only; host.Instance.ReceiveProgramData
	// takes its packetBudget from the caller and does not read this field.
	StreamPacketBudget int `toml:"stream_packet_budget"`
	// GUICreation selects whether Open creates the backend on the worker
	// thread directly (false) or hands creation to the GUI thread and
	// blocks on a future (true) — Open Question (a) in the design notes.
	GUICreation bool `toml:"gui_creation"`
	// WorkerCommandTimeout is a duration for worker-side blocking
	// operations. It is loaded and defaulted here only; no worker code
	// reads it, so no operation is timed, logged as slow, or cancelled.
	WorkerCommandTimeout time.Duration `toml:"worker_command_timeout"`
}

// Default returns the package defaults.
func Default() Config {
	return Config{
		DefaultSampleRate:    44100.0,
		DefaultBlockSize:     512,
		CommandQueueDepth:    64,
		StreamPacketBudget:   1024,
		GUICreation:          false,
		WorkerCommandTimeout: 5 * time.Second,
	}
}

// Load reads and decodes a TOML config file, filling any field left at its
// zero value with the package default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}
	var loaded Config
	if err := toml.Unmarshal(b, &loaded); err != nil {
		return Config{}, fmt.Errorf("hostconfig: parse %s: %w", path, err)
	}
	if loaded.DefaultSampleRate != 0 {
		cfg.DefaultSampleRate = loaded.DefaultSampleRate
	}
	if loaded.DefaultBlockSize != 0 {
		cfg.DefaultBlockSize = loaded.DefaultBlockSize
	}
	if loaded.CommandQueueDepth != 0 {
		cfg.CommandQueueDepth = loaded.CommandQueueDepth
	}
	if loaded.StreamPacketBudget != 0 {
		cfg.StreamPacketBudget = loaded.StreamPacketBudget
	}
	if loaded.WorkerCommandTimeout != 0 {
		cfg.WorkerCommandTimeout = loaded.WorkerCommandTimeout
	}
	cfg.GUICreation = loaded.GUICreation
	return cfg, nil
}
