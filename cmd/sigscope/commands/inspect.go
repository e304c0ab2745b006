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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/notaryproject/sigscope/inspect"
	"github.com/notaryproject/sigscope/pdfsig"
	"github.com/notaryproject/sigscope/render"
)

// rawExtensions are file extensions of encoded CMS envelopes.
var rawExtensions = map[string]bool{
	".p7s": true,
	".p7m": true,
	".p7b": true,
	".der": true,
	".cms": true,
}

type inspectOptions struct {
	format      string
	raw         bool
	values      bool
	maxSize     int
	concurrency int
	color       bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect [flags] FILE...",
		Short: "Inspect the signatures of PDF documents or CMS files",
		Long: `Inspect decodes the signatures of each file and prints a report.

PDF documents are searched for signature dictionaries. Files ending in .p7s,
.p7m, .p7b, .der or .cms, and any file when --raw is given, are decoded as a
single CMS envelope. Use - to read from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (text, json, yaml, cbor)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "decode files as CMS envelopes instead of PDF documents")
	cmd.Flags().BoolVar(&opts.values, "values", false, "include the hex encoded attribute values")
	cmd.Flags().IntVar(&opts.maxSize, "max-size", 0, "maximum size of a signature in bytes")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "number of signatures decoded in parallel")
	cmd.Flags().BoolVar(&opts.color, "color", false, "force colored text output")
	return cmd
}

func runInspect(cmd *cobra.Command, opts *inspectOptions, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("max-size") {
		cfg.MaxSignatureSize = opts.maxSize
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	env, err := setup(cmd, cfg)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	renderOpts := render.Options{
		Registry: env.registry,
		Values:   opts.values,
		Color:    cfg.Output.Color && !color.NoColor,
	}
	if flags.Changed("color") {
		renderOpts.Color = opts.color
	}

	builder := env.builder(nil)
	out := cmd.OutOrStdout()
	var failed []string
	for i, path := range args {
		signatures, err := readSignatures(cmd.InOrStdin(), path, opts.raw)
		if err != nil {
			env.logger.WithError(err).WithField("file", path).Error("Failed to read signatures")
			failed = append(failed, path)
			continue
		}
		report := builder.Build(cmd.Context(), signatures)
		if err := writeSeparator(out, format, path, i); err != nil {
			return err
		}
		if err := render.Render(out, report, format, renderOpts); err != nil {
			return fmt.Errorf("failed to render report of %s: %w", path, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to inspect %s", strings.Join(failed, ", "))
	}
	return nil
}

// writeSeparator names the file ahead of its text report, and separates
// YAML documents.
func writeSeparator(w io.Writer, format render.Format, path string, index int) error {
	var err error
	switch format {
	case render.FormatText:
		if index > 0 {
			_, err = fmt.Fprintln(w)
		}
		if err == nil {
			_, err = fmt.Fprintf(w, "==> %s <==\n", path)
		}
	case render.FormatYAML:
		if index > 0 {
			_, err = fmt.Fprintln(w, "---")
		}
	}
	return err
}

// readSignatures reads the signatures of the file at path.
func readSignatures(stdin io.Reader, path string, raw bool) ([]inspect.Signature, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if raw || rawExtensions[strings.ToLower(filepath.Ext(path))] {
		return []inspect.Signature{{Contents: data}}, nil
	}
	signatures, err := pdfsig.Extract(data)
	if errors.Is(err, pdfsig.ErrNotPDF) {
		return nil, fmt.Errorf("%w, use --raw for CMS files", err)
	}
	return signatures, err
}
