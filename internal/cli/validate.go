package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riwaq/riwaq-go/internal/loader"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	File        string `json:"file"`
	Op          string `json:"op,omitempty"`
	Table       string `json:"table,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ErrorPosition locates a validation error in a CUE source file.
type ErrorPosition struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a request document without rendering it",
		Long: `Validate a request document against the request schema.

Checks syntax, the envelope shape and every filter node, then decodes the
document. Exits with code 1 when the document is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	req, err := loader.LoadFile(path)
	if err != nil {
		return outputValidationError(formatter, path, err)
	}

	desc, err := describe(opts, path, req)
	if err != nil {
		return formatter.Fail("fingerprint request", err)
	}
	formatter.VerboseLog("Rendered: %s", desc.SQL)

	result := ValidationResult{
		Valid:       true,
		File:        path,
		Op:          desc.Op,
		Table:       desc.Table,
		Fingerprint: desc.Fingerprint,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s: valid %s on %s\n", path, result.Op, result.Table)
	return nil
}

func outputValidationError(formatter *OutputFormatter, path string, err error) error {
	code, exit := classify(err)

	var pos *ErrorPosition
	var le *loader.LoadError
	if errors.As(err, &le) && le.Pos.IsValid() {
		pos = &ErrorPosition{File: le.Pos.Filename(), Line: le.Pos.Line(), Column: le.Pos.Column()}
	}

	if formatter.JSON() {
		resp := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, File: path},
			Error:  &CLIError{Code: code, Message: err.Error()},
		}
		if pos != nil {
			resp.Error.Details = pos
		}
		if encErr := formatter.encode(resp); encErr != nil {
			return encErr
		}
		return WrapExitError(exit, "validation failed", err)
	}

	fmt.Fprintf(formatter.Writer, "✗ %s\n", path)
	fmt.Fprintf(formatter.Writer, "  [%s] %v\n", code, err)
	return WrapExitError(exit, "validation failed", err)
}
