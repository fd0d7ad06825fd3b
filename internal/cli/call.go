package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riwaq/riwaq-go/bridge"
	"github.com/riwaq/riwaq-go/internal/host"
	"github.com/riwaq/riwaq-go/internal/loader"
)

// CallOptions holds flags for the exec and query commands.
type CallOptions struct {
	*RootOptions
	Database string
	Timeout  time.Duration
}

// NewCallCommand creates the exec or query command. op must be "exec" or
// "query".
func NewCallCommand(rootOpts *RootOptions, op string) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	verb := "execute a statement and print the affected row count"
	if op == string(bridge.OpQuery) {
		verb = "run a query and print its rows"
	}

	cmd := &cobra.Command{
		Use:   op + " <file>",
		Short: fmt.Sprintf("Send a request document through the bridge (%s)", op),
		Long: fmt.Sprintf(`Load a request document and send it to a SQLite host as %q, the same
way a guest would: %s.

The database is created if it does not exist. A request the host rejects
exits with code 1.

Example:
  riwaq %s ./requests/doc.yaml --db ./app.db
  riwaq %s ./requests/doc.json --db ./app.db --format json --timeout 5s`, op, verb, op, op),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, bridge.Op(op), args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "abort the call after this long (0 = no limit)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runCall(opts *CallOptions, op bridge.Op, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	req, err := loader.LoadFile(path)
	if err != nil {
		return formatter.Fail("load request", err)
	}

	exec, err := host.Open(opts.Database, host.WithRenderer(opts.Renderer()), host.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := exec.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	client, err := bridge.New(exec, bridge.WithRenderer(opts.Renderer()), bridge.WithLogger(logger))
	if err != nil {
		return formatter.Fail("create bridge client", err)
	}
	defer client.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	formatter.VerboseLog("%s %s", op, opts.Renderer().Render(req))
	data, err := client.Call(ctx, op, req)
	if err != nil {
		return formatter.Fail(string(op)+" failed", err)
	}

	if formatter.JSON() {
		return formatter.Success(data)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return formatter.Fail("format response", err)
	}
	return formatter.Success(pretty.String())
}
