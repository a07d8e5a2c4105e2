package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/relations"
)

// RelationsResult is the output of relations.
type RelationsResult struct {
	Relationships []relations.Relationship `json:"relationships"`
	Context       string                   `json:"context"`
}

// RenderText prints the relationship context.
func (r RelationsResult) RenderText(w io.Writer) {
	if r.Context == "" {
		fmt.Fprintln(w, "No relationships.")
		return
	}
	fmt.Fprint(w, r.Context)
}

// NewRelationsCommand creates the relations command.
func NewRelationsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "relations <scene> [ids...]",
		Short: "Describe relationships between elements",
		Long: `Describe the relationships involving the given elements of a stored scene:
connectors, bound labels, shared groups and frame membership. Without ids
every live element is considered.

Examples:
  scenekit relations default
  scenekit relations default el-1 el-3`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runRelations(opts *RootOptions, name string, ids []string, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	scene, _, err := st.LoadOrEmpty(cmd.Context(), name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}

	subset := scene.Live()
	if len(ids) > 0 {
		subset = make([]ir.Element, 0, len(ids))
		var missing []string
		for _, id := range ids {
			e, ok := scene.FindLive(id)
			if !ok {
				missing = append(missing, id)
				continue
			}
			subset = append(subset, e)
		}
		if len(missing) > 0 {
			opts.formatter(cmd).VerboseLog("ignoring unknown ids: %v", missing)
		}
	}

	rels := relations.Detect(subset, scene)
	if rels == nil {
		rels = []relations.Relationship{}
	}
	return opts.formatter(cmd).Success(RelationsResult{
		Relationships: rels,
		Context:       relations.Describe(rels, scene),
	})
}
