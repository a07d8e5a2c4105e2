package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/reconcile"
)

// ReconcileResult is the output of reconcile.
type ReconcileResult struct {
	Scene string `json:"scene"`
	reconcile.Result
}

// RenderText prints the created, updated and deleted ids.
func (r ReconcileResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "created: %s\n", joinIDs(r.CreatedIDs))
	fmt.Fprintf(w, "updated: %s\n", joinIDs(r.UpdatedIDs))
	fmt.Fprintf(w, "deleted: %s\n", joinIDs(r.DeletedIDs))
	if r.Skipped > 0 {
		fmt.Fprintf(w, "skipped: %d\n", r.Skipped)
	}
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <scene> <batch.json>",
		Short: "Merge an external batch into a stored scene",
		Long: `Merge an external batch into a stored scene and persist the result.

The file holds a batch object ({"elements": [...], "deleteIds": [...]}) or a
bare array of elements; "-" reads standard input. Elements with an "id"
update in place, anything else is synthesized as a new element. Items that
cannot be used are skipped and counted.

Examples:
  scenekit reconcile default ./batch.json
  scenekit reconcile default - --format json < batch.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runReconcile(opts *RootOptions, name, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read batch", err)
	}
	batch, err := decodeBatchFile(data)
	if err != nil {
		_ = f.Error(CodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid batch file", err)
	}

	sess, err := openSession(cmd.Context(), opts, name)
	if err != nil {
		return err
	}
	res, err := sess.engine.SubmitBatch(cmd.Context(), batch)
	if closeErr := sess.Close(); err == nil && closeErr != nil {
		return WrapExitError(ExitCommandError, "failed to close session", closeErr)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to reconcile batch", err)
	}

	res.Scene = nil
	return f.Success(ReconcileResult{Scene: name, Result: res})
}
