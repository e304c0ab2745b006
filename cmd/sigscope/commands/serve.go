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

package commands

import (
	"github.com/spf13/cobra"

	"github.com/notaryproject/sigscope/internal/metrics"
	"github.com/notaryproject/sigscope/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve signature inspection over HTTP",
		Long: `Serve starts an HTTP server inspecting uploaded documents.

  POST /v1/inspect   inspect a PDF document or a CMS envelope in the body
  GET  /metrics      Prometheus metrics
  GET  /healthz      health check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			env, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			m := metrics.New()
			srv := server.New(cfg.Server, env.builder(m),
				server.WithRegistry(env.registry),
				server.WithMetrics(m),
				server.WithLogger(env.logger),
			)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default from configuration, :8080)")
	return cmd
}
