package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/assist"
	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/llm"
	"github.com/roach88/scenekit/internal/retry"
)

// APIKeyEnv names the environment variable holding the generation API key.
const APIKeyEnv = "GEMINI_API_KEY"

// AssistOptions holds flags for the assist command.
type AssistOptions struct {
	*RootOptions
	Focus  []string // element ids the request is about
	DryRun bool     // plan only, do not execute

	// Generator overrides the Gemini-backed generator (for testing).
	Generator llm.Generator
}

// PlanResult is the output of assist --dry-run.
type PlanResult struct {
	Actions  []ir.Action `json:"actions"`
	Attempts int         `json:"attempts"`
}

// RenderText prints one line per planned action.
func (r PlanResult) RenderText(w io.Writer) {
	for i, a := range r.Actions {
		target := a.ID
		if target == "" {
			target = a.Ref
		}
		fmt.Fprintf(w, "[%d] %s %s\n", i, a.Type, target)
	}
	fmt.Fprintf(w, "%d action(s) planned in %d attempt(s)\n", len(r.Actions), r.Attempts)
}

// AssistResult is the output of assist.
type AssistResult struct {
	ApplyResult
	Attempts int `json:"attempts"`
}

// NewAssistCommand creates the assist command.
func NewAssistCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssistOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assist <scene> <request...>",
		Short: "Ask the text-generation model to edit a scene",
		Long: `Describe a change in plain language; the model plans an action batch from
the current scene and its relationships, and the batch is executed and
persisted. Generation is retried until the reply is a non-empty JSON array.

Requires ` + APIKeyEnv + ` in the environment.

Examples:
  scenekit assist default "add a cache between the service and the database"
  scenekit assist default "label the arrow" --focus el-5 --dry-run`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssist(opts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Focus, "focus", nil, "element ids the request is about")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the planned actions without executing them")
	return cmd
}

func runAssist(opts *AssistOptions, name, request string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	logger := opts.logger()

	gen := opts.Generator
	if gen == nil {
		key := os.Getenv(APIKeyEnv)
		if key == "" {
			_ = f.Error(CodeGeneration, APIKeyEnv+" is not set", nil)
			return NewExitError(ExitCommandError, APIKeyEnv+" is not set")
		}
		g, err := llm.NewGenAIGenerator(cmd.Context(), key, cfg.Generation.Model)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create generator", err)
		}
		gen = llm.NewBreakerGenerator(g, cfg.BreakerSettings(), logger)
	}

	sess, err := openSession(cmd.Context(), opts.RootOptions, name)
	if err != nil {
		return err
	}
	assistant := assist.New(gen, sess.engine, logger,
		assist.WithPolicy(cfg.RetryPolicy(retry.NonEmptyJSONArray)))

	var (
		out    any
		runErr error
	)
	if opts.DryRun {
		actions, attempts, err := assistant.Plan(cmd.Context(), request, opts.Focus...)
		out, runErr = PlanResult{Actions: actions, Attempts: attempts}, err
	} else {
		outcome, err := assistant.Run(cmd.Context(), request, opts.Focus...)
		out = AssistResult{ApplyResult: newApplyResult(name, outcome.Results), Attempts: outcome.Attempts}
		runErr = err
	}
	if closeErr := sess.Close(); runErr == nil && closeErr != nil {
		return WrapExitError(ExitCommandError, "failed to close session", closeErr)
	}

	if runErr != nil {
		_ = f.Error(CodeGeneration, runErr.Error(), nil)
		if errors.Is(runErr, retry.ErrNoContent) {
			return WrapExitError(ExitCommandError, "generation unavailable", runErr)
		}
		return WrapExitError(ExitFailure, "assistant failed", runErr)
	}
	return f.Success(out)
}
