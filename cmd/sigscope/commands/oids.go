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
	"fmt"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewOIDsCommand creates the oids command.
func NewOIDsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "oids",
		Short: "List the known object identifiers",
		Long:  `List the built-in object identifiers and those added by the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			env, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			entries := env.registry.Entries()
			out := cmd.OutOrStdout()
			switch format {
			case "", "text":
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "OID\tROLE\tNAME")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\n", e.OID, e.Role, e.Name)
				}
				return w.Flush()
			case "json":
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "yaml":
				enc := yaml.NewEncoder(out)
				if err := enc.Encode(entries); err != nil {
					return err
				}
				return enc.Close()
			}
			return fmt.Errorf("unsupported format %q", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json, yaml)")
	return cmd
}
