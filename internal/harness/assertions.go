package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/relations"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against scene and returns the
// failure messages. refs resolves "@name" ids.
func EvaluateAssertions(scene ir.Scene, assertions []Assertion, refs map[string]string) []string {
	var errs []string
	for i, a := range assertions {
		a.ID = resolveRef(a.ID, refs)
		a.From = resolveRef(a.From, refs)
		a.To = resolveRef(a.To, refs)

		var err error
		switch a.Type {
		case AssertLiveCount:
			err = assertLiveCount(scene, a)
		case AssertBoundText:
			err = assertBoundText(scene, a)
		case AssertConnectorCount:
			err = assertConnectorCount(scene, a)
		case AssertNoViolations:
			err = assertNoViolations(scene)
		case AssertRelationship:
			err = assertRelationship(scene, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func resolveRef(id string, refs map[string]string) string {
	if name, ok := strings.CutPrefix(id, "@"); ok {
		if real, ok := refs[name]; ok {
			return real
		}
	}
	return id
}

func assertLiveCount(scene ir.Scene, a Assertion) error {
	count := 0
	for _, e := range scene.Live() {
		if a.Kind == "" || string(e.Type) == a.Kind {
			count++
		}
	}
	if count != *a.Count {
		what := "live elements"
		if a.Kind != "" {
			what = "live " + a.Kind + " elements"
		}
		return &AssertionError{
			Type:     AssertLiveCount,
			Expected: fmt.Sprintf("%d %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}

func assertBoundText(scene ir.Scene, a Assertion) error {
	container, ok := scene.FindLive(a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertBoundText,
			Expected: fmt.Sprintf("live element %s", a.ID),
			Actual:   "missing or deleted",
		}
	}
	textID, ok := container.BoundText()
	if !ok {
		return &AssertionError{
			Type:     AssertBoundText,
			Expected: fmt.Sprintf("%s labelled %q", a.ID, a.Text),
			Actual:   "no bound text",
		}
	}
	text, ok := scene.FindLive(textID)
	if !ok || text.ContainerID != container.ID || text.Text != a.Text {
		return &AssertionError{
			Type:     AssertBoundText,
			Expected: fmt.Sprintf("%s labelled %q", a.ID, a.Text),
			Actual:   fmt.Sprintf("text %s = %q (container %q)", textID, text.Text, text.ContainerID),
		}
	}
	return nil
}

func assertConnectorCount(scene ir.Scene, a Assertion) error {
	count := 0
	for _, e := range scene.Live() {
		if !e.Type.IsConnector() {
			continue
		}
		if a.From != "" && !e.Binds(a.From, a.To) {
			continue
		}
		count++
	}
	if count != *a.Count {
		expected := fmt.Sprintf("%d live connectors", *a.Count)
		if a.From != "" {
			expected += fmt.Sprintf(" between %s and %s", a.From, a.To)
		}
		return &AssertionError{
			Type:     AssertConnectorCount,
			Expected: expected,
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}

func assertNoViolations(scene ir.Scene) error {
	violations := ir.CheckInvariants(scene)
	if len(violations) == 0 {
		return nil
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Error()
	}
	return &AssertionError{
		Type:     AssertNoViolations,
		Expected: "no invariant violations",
		Actual:   strings.Join(msgs, "; "),
	}
}

func assertRelationship(scene ir.Scene, a Assertion) error {
	rels := relations.Detect(scene.Live(), scene)
	for _, r := range rels {
		if string(r.Kind) == a.Kind && r.FromID == a.From && r.ToID == a.To {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRelationship,
		Expected: fmt.Sprintf("%s %s -> %s", a.Kind, a.From, a.To),
		Actual:   fmt.Sprintf("%d relationships, none matching", len(rels)),
	}
}
