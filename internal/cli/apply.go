package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/ir"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Strict bool // validate up front and fail when any action fails
}

// ApplyResult is the output of apply and assist.
type ApplyResult struct {
	Scene   string            `json:"scene"`
	Results []ir.ActionResult `json:"results"`
	Failed  int               `json:"failed"`
}

// RenderText prints one line per action result.
func (r ApplyResult) RenderText(w io.Writer) {
	for _, res := range r.Results {
		if res.Success {
			fmt.Fprintf(w, "✓ [%d] %s %s\n", res.Index, res.Type, res.ID)
		} else {
			fmt.Fprintf(w, "✗ [%d] %s: %s\n", res.Index, res.Type, res.Error)
		}
	}
	fmt.Fprintf(w, "%d applied, %d failed (scene %s)\n", len(r.Results)-r.Failed, r.Failed, r.Scene)
}

func newApplyResult(scene string, results []ir.ActionResult) ApplyResult {
	r := ApplyResult{Scene: scene, Results: results}
	for _, res := range results {
		if !res.Success {
			r.Failed++
		}
	}
	return r
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <scene> <actions.json>",
		Short: "Execute an action batch against a stored scene",
		Long: `Execute an ordered action batch against a stored scene and persist the result.

The file holds a JSON array of actions or an object with an "actions" field;
"-" reads standard input. Actions run in order; a failed action does not stop
the ones after it.

Exit codes:
  0 - Batch executed (with --strict: every action succeeded)
  1 - One or more actions failed (--strict only)
  2 - Command error (unreadable file, invalid actions under --strict, etc.)

Examples:
  scenekit apply default ./actions.json
  scenekit apply default - --strict < actions.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject invalid actions before executing and fail on any failed action")
	return cmd
}

func runApply(opts *ApplyOptions, name, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read actions", err)
	}
	actions, err := decodeActionsFile(data)
	if err != nil {
		_ = f.Error(CodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid actions file", err)
	}
	if opts.Strict {
		if msgs := validateActions(actions); len(msgs) > 0 {
			_ = f.Error(CodeInvalidInput, fmt.Sprintf("%d invalid action field(s)", len(msgs)), msgs)
			return NewExitError(ExitCommandError, "invalid actions")
		}
	}

	sess, err := openSession(cmd.Context(), opts.RootOptions, name)
	if err != nil {
		return err
	}
	results, err := sess.engine.SubmitActions(cmd.Context(), actions)
	if closeErr := sess.Close(); err == nil && closeErr != nil {
		return WrapExitError(ExitCommandError, "failed to close session", closeErr)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to execute actions", err)
	}

	out := newApplyResult(name, results)
	if opts.Strict && out.Failed > 0 {
		msg := fmt.Sprintf("%d action(s) failed", out.Failed)
		if err := f.Failure(CodeActionsFailed, msg, out); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(out)
}
