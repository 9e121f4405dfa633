package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // check failed (missing translations, sessions to reconcile)
	ExitCommandError = 2 // bad arguments, database unreachable
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code from an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the json envelope written with --format json.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// emit writes data as json, or calls text with a tab-aligned writer.
func (o *RootOptions) emit(cmd *cobra.Command, status string, data any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if o.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: status, Data: data})
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}
