package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scenekit/internal/relations"
)

// RenderTrace renders a result as stable text: one line per trace event
// followed by the relationship context of the final scene. Error messages
// are reduced to their code.
func RenderTrace(name string, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)

	step := 0
	for _, ev := range r.Trace {
		if ev.Step != step {
			step = ev.Step
			fmt.Fprintf(&b, "step %d %s\n", ev.Step, ev.Kind)
		}
		if ev.Kind != "actions" {
			fmt.Fprintf(&b, "  created=%v updated=%v deleted=%v skipped=%d\n",
				ev.Created, ev.Updated, ev.Deleted, ev.Skipped)
			continue
		}
		if ev.Success {
			fmt.Fprintf(&b, "  [%d] %s ok %s\n", ev.Index, ev.Type, ev.ID)
		} else {
			code, _, _ := strings.Cut(ev.Error, ":")
			fmt.Fprintf(&b, "  [%d] %s failed %s\n", ev.Index, ev.Type, code)
		}
	}

	live := r.Scene.Live()
	fmt.Fprintf(&b, "live: %d\n", len(live))
	if ctx := relations.Describe(relations.Detect(live, r.Scene), r.Scene); ctx != "" {
		b.WriteString(ctx)
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares its rendered trace
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("Run(%s) failed: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(RenderTrace(scenario.Name, result)))
	return result
}
