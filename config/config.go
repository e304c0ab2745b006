// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the sigscope configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/notaryproject/sigscope/oid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Common errors
var (
	ErrInvalidOID    = errors.New("invalid OID")
	ErrInvalidFormat = errors.New("invalid output format")
)

// OIDRegex matches OID strings like "1.2.3.4"
var OIDRegex = regexp.MustCompile(`^\d+(\.\d+)+$`)

// Output formats understood by the renderers.
var Formats = []string{"text", "json", "yaml", "cbor"}

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Config is the complete application configuration.
type Config struct {
	// MaxSignatureSize is the largest signature envelope in bytes that is
	// decoded. Zero means unbounded.
	MaxSignatureSize int `yaml:"max-signature-size" json:"max_signature_size"`

	// Concurrency is the number of signatures decoded in parallel.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	Output OutputConfig `yaml:"output" json:"output"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Server ServerConfig `yaml:"server" json:"server"`
	OIDs   []OIDConfig  `yaml:"oids" json:"oids,omitempty"`
}

// OutputConfig contains report rendering configuration.
type OutputConfig struct {
	// Format is one of text, json, yaml and cbor.
	Format string `yaml:"format" json:"format"`

	// Color enables colored text output.
	Color bool `yaml:"color" json:"color"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// Format is the log format (text, json).
	Format string `yaml:"format" json:"format"`
}

// ServerConfig contains the HTTP inspection service configuration.
type ServerConfig struct {
	Addr          string        `yaml:"addr" json:"addr"`
	MaxUploadSize int64         `yaml:"max-upload-size" json:"max_upload_size"`
	ReadTimeout   time.Duration `yaml:"read-timeout" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write-timeout" json:"write_timeout"`
}

// OIDConfig registers an additional object identifier.
type OIDConfig struct {
	OID  string `yaml:"oid" json:"oid"`
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxSignatureSize: 16 << 20,
		Concurrency:      4,
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: 64 << 20,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
		},
	}
}

// Load loads a configuration from a YAML file. Fields missing from the
// file keep their default values.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, &ConfigError{Message: "failed to parse config", Err: err}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.MaxSignatureSize < 0 {
		return NewConfigError("max-signature-size", "must not be negative")
	}
	if c.Concurrency < 1 {
		return NewConfigError("concurrency", "must be at least 1")
	}
	if !validFormat(c.Output.Format) {
		return &ConfigError{
			Field:   "output.format",
			Message: fmt.Sprintf("unknown format %q", c.Output.Format),
			Err:     ErrInvalidFormat,
		}
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return &ConfigError{Field: "log.level", Message: err.Error(), Err: err}
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return NewConfigError("log.format", fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.Server.MaxUploadSize <= 0 {
		return NewConfigError("server.max-upload-size", "must be positive")
	}
	for i, entry := range c.OIDs {
		field := fmt.Sprintf("oids[%d]", i)
		if !OIDRegex.MatchString(entry.OID) {
			return &ConfigError{
				Field:   field + ".oid",
				Message: fmt.Sprintf("%q is not a dotted OID", entry.OID),
				Err:     ErrInvalidOID,
			}
		}
		if entry.Role != "" {
			if _, err := oid.ParseRole(entry.Role); err != nil {
				return &ConfigError{Field: field + ".role", Message: err.Error(), Err: err}
			}
		}
	}
	if _, err := c.Registry(); err != nil {
		return &ConfigError{Field: "oids", Message: err.Error(), Err: err}
	}
	return nil
}

// Registry builds the OID registry holding the built-in identifiers and the
// configured ones.
func (c *Config) Registry() (*oid.Registry, error) {
	entries := make([]oid.Entry, 0, len(c.OIDs))
	for _, e := range c.OIDs {
		role := oid.RoleUnknown
		if e.Role != "" {
			var err error
			if role, err = oid.ParseRole(e.Role); err != nil {
				return nil, err
			}
		}
		entries = append(entries, oid.Entry{OID: e.OID, Name: e.Name, Role: role})
	}
	return oid.NewRegistry(entries...)
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
