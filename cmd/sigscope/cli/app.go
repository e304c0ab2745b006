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

// Package cli holds the root command of sigscope.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Persistent flag names.
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

var rootCmd = NewRootCommand()

// NewRootCommand creates the root command with its persistent flags.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sigscope",
		Short: "Inspect CMS signatures and RFC 3161 timestamp tokens",
		Long: `sigscope decodes the CMS signatures embedded in PDF documents or stored in
detached signature files, and reports their signers, attributes and
signature timestamp tokens. Nothing is verified: the report describes what
the signatures claim.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.PersistentFlags().String(FlagConfig, "", "configuration file to use")
	cmd.PersistentFlags().String(FlagLogLevel, "", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String(FlagLogFormat, "", "log format (text, json)")
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which is canceled to stop
// long running commands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetupVersion configures version information after variables are set.
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds commands to the root command.
func AddCommand(cmds ...*cobra.Command) {
	rootCmd.AddCommand(cmds...)
}
