// Package config loads controller connection settings from a JSON file.
// Fields are pointers so partial config files are safe: anything omitted
// keeps its default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AllenNeuralDynamics/voxel-sub006/internal/serialmux"
)

// Config is the root configuration for a controller session.
type Config struct {
	// Serial connection
	PortPath *string `json:"port_path,omitempty"`
	BaudRate *int    `json:"baud_rate,omitempty"`
	DataBits *int    `json:"data_bits,omitempty"`
	StopBits *int    `json:"stop_bits,omitempty"`
	Parity   *string `json:"parity,omitempty"`

	// ReplyTimeoutMS bounds how long a read waits for a reply, in
	// milliseconds.
	ReplyTimeoutMS *int `json:"reply_timeout_ms,omitempty"`

	// DatabasePath is where discovery snapshots and the command log are
	// stored. Empty disables persistence.
	DatabasePath *string `json:"database_path,omitempty"`

	// Listen is the HTTP listen address for the debug routes. Empty
	// disables the server.
	Listen *string `json:"listen,omitempty"`
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and stay under the max file size. Fields omitted from the file stay nil,
// so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// PortOptions resolves the serial connection parameters, falling back to the
// serialmux defaults for unset fields.
func (c *Config) PortOptions() serialmux.PortOptions {
	var opts serialmux.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}

// ReplyTimeout resolves the configured reply timeout, or the transport
// default when unset.
func (c *Config) ReplyTimeout() time.Duration {
	if c.ReplyTimeoutMS == nil || *c.ReplyTimeoutMS <= 0 {
		return serialmux.DefaultReplyTimeout
	}
	return time.Duration(*c.ReplyTimeoutMS) * time.Millisecond
}

// Port returns the configured serial port path, or the given fallback.
func (c *Config) Port(fallback string) string {
	if c.PortPath != nil && *c.PortPath != "" {
		return *c.PortPath
	}
	return fallback
}
