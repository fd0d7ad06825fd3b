package cli

import (
	"github.com/spf13/cobra"

	"github.com/riwaq/riwaq-go/internal/loader"
	"github.com/riwaq/riwaq-go/queryir"
)

// RenderResult describes a rendered request document.
type RenderResult struct {
	File        string `json:"file"`
	Op          string `json:"op"`
	Table       string `json:"table"`
	SQL         string `json:"sql"`
	Fingerprint string `json:"fingerprint"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a request document to SQL",
		Long: `Render a request document to the SQL statement a host would run.

The document (.json, .yaml, .yml or .cue) is validated against the request
schema first. Nothing is executed.

Example:
  riwaq render ./requests/active_users.yaml
  riwaq render ./requests/active_users.cue --strict-not-in --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRender(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	req, err := loader.LoadFile(path)
	if err != nil {
		return formatter.Fail("load request", err)
	}

	result, err := describe(opts, path, req)
	if err != nil {
		return formatter.Fail("render request", err)
	}
	formatter.VerboseLog("%s %s on %s (fingerprint %s)", path, result.Op, result.Table, result.Fingerprint)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return formatter.Success(result.SQL)
}

// describe renders req and summarizes it for output.
func describe(opts *RootOptions, path string, req queryir.Request) (RenderResult, error) {
	fp, err := queryir.Fingerprint(req)
	if err != nil {
		return RenderResult{}, err
	}
	return RenderResult{
		File:        path,
		Op:          req.Op(),
		Table:       tableOf(req),
		SQL:         opts.Renderer().Render(req),
		Fingerprint: fp,
	}, nil
}

func tableOf(req queryir.Request) string {
	switch r := req.(type) {
	case queryir.Select:
		return r.Table
	case queryir.Update:
		return r.Table
	case *queryir.Select:
		if r != nil {
			return r.Table
		}
	case *queryir.Update:
		if r != nil {
			return r.Table
		}
	}
	return ""
}
