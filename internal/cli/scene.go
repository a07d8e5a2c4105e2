package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/relations"
	"github.com/roach88/scenekit/internal/store"
)

// SceneOptions holds flags for the scene show command.
type SceneOptions struct {
	*RootOptions
	Deleted bool // include tombstoned elements
}

// SceneView is the output of scene show.
type SceneView struct {
	Name     string   `json:"name"`
	Seq      int64    `json:"seq"`
	Elements ir.Scene `json:"elements"`
}

// RenderText prints one line per element that is not bound text.
func (v SceneView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Scene %s (seq %d, %d elements)\n", v.Name, v.Seq, len(v.Elements))
	for _, e := range v.Elements {
		if e.ContainerID != "" && !e.IsDeleted {
			continue
		}
		fmt.Fprintf(w, "  %s %s at (%g, %g) size %gx%g", e.ID, e.Type, e.X, e.Y, e.Width, e.Height)
		if caption := relations.Caption(e, v.Elements); caption != "" {
			fmt.Fprintf(w, " %q", caption)
		}
		if e.IsDeleted {
			fmt.Fprint(w, " [deleted]")
		}
		fmt.Fprintln(w)
	}
}

// SceneList is the output of scene list.
type SceneList struct {
	Scenes []store.SceneInfo `json:"scenes"`
}

// RenderText prints one line per stored scene.
func (l SceneList) RenderText(w io.Writer) {
	if len(l.Scenes) == 0 {
		fmt.Fprintln(w, "No scenes stored.")
		return
	}
	for _, s := range l.Scenes {
		fmt.Fprintf(w, "%s\tseq %d\t%s\n", s.Name, s.Seq, s.Fingerprint)
	}
}

// NewSceneCommand creates the scene command group.
func NewSceneCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Inspect stored scenes",
	}
	cmd.AddCommand(newSceneShowCommand(rootOpts))
	cmd.AddCommand(newSceneListCommand(rootOpts))
	return cmd
}

func newSceneShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SceneOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored scene",
		Long: `Print the latest stored snapshot of a scene.

Text output lists one line per element (bound labels are shown as the
caption of their container). JSON output carries the complete element
list in canvas wire format.

Examples:
  scenekit scene show default
  scenekit scene show default --deleted --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showScene(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Deleted, "deleted", false, "include deleted elements")
	return cmd
}

func showScene(opts *SceneOptions, name string, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	scene, seq, err := st.LoadScene(cmd.Context(), name)
	if errors.Is(err, store.ErrSceneNotFound) {
		_ = f.Error(CodeNotFound, fmt.Sprintf("scene %q not found", name), nil)
		return WrapExitError(ExitCommandError, "scene not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}

	if !opts.Deleted {
		scene = scene.Live()
	}
	return f.Success(SceneView{Name: name, Seq: seq, Elements: scene})
}

func newSceneListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored scenes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			scenes, err := st.ListScenes(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list scenes", err)
			}
			if scenes == nil {
				scenes = []store.SceneInfo{}
			}
			return rootOpts.formatter(cmd).Success(SceneList{Scenes: scenes})
		},
	}
}

// openStore opens the configured database without starting an engine.
func openStore(opts *RootOptions) (*store.Store, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
