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

// Package commands implements the sigscope subcommands.
package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notaryproject/sigscope/cmd/sigscope/cli"
	"github.com/notaryproject/sigscope/config"
	"github.com/notaryproject/sigscope/inspect"
	logging "github.com/notaryproject/sigscope/internal/log"
	"github.com/notaryproject/sigscope/internal/metrics"
	"github.com/notaryproject/sigscope/oid"
)

// environment is what a command needs to run, resolved from the
// configuration file and the command line.
type environment struct {
	config   *config.Config
	logger   *logrus.Logger
	registry *oid.Registry
}

// loadConfig reads the file named by --config, or the defaults, and applies
// the persistent logging flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := stringFlag(cmd, cli.FlagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if level := stringFlag(cmd, cli.FlagLogLevel); level != "" {
		cfg.Log.Level = level
	}
	if format := stringFlag(cmd, cli.FlagLogFormat); format != "" {
		cfg.Log.Format = format
	}
	return cfg, nil
}

// setup validates cfg and builds the logger and the registry.
func setup(cmd *cobra.Command, cfg *config.Config) (*environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return &environment{config: cfg, logger: logger, registry: registry}, nil
}

func (env *environment) builder(m *metrics.Metrics) *inspect.Builder {
	return inspect.NewBuilder(
		inspect.WithRegistry(env.registry),
		inspect.WithMaxSize(env.config.MaxSignatureSize),
		inspect.WithConcurrency(env.config.Concurrency),
		inspect.WithLogger(env.logger),
		inspect.WithMetrics(m),
	)
}

// stringFlag returns the value of a flag that may not be defined on cmd.
func stringFlag(cmd *cobra.Command, name string) string {
	if cmd.Flags().Lookup(name) == nil {
		return ""
	}
	value, _ := cmd.Flags().GetString(name)
	return value
}
