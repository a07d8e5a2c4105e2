package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scenekit/internal/ir"
)

// Scenario defines a scenekit test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene holds the initial elements, written with their JSON field names.
	// They are reconciled into an empty scene before the first step.
	Scene *JSON[[]ir.BatchItem] `yaml:"scene,omitempty"`

	// Steps run in order through the engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final scene.
	Assertions []Assertion `yaml:"assertions"`

	// IDPrefix overrides the "el" prefix of generated ids.
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// Step is either an action batch or a reconcile batch.
type Step struct {
	Name string `yaml:"name,omitempty"`

	Actions *JSON[[]ir.Action] `yaml:"actions,omitempty"`

	// Expect is matched against the action results by position. Shorter
	// lists leave the remaining results unchecked.
	Expect []ExpectClause `yaml:"expect,omitempty"`

	Batch *JSON[ir.Batch] `yaml:"batch,omitempty"`

	// Reconciled is matched against the reconcile result.
	Reconciled *ReconcileExpect `yaml:"reconciled,omitempty"`
}

// ExpectClause specifies the expected result of one action.
type ExpectClause struct {
	Success bool `yaml:"success"`

	// Error is an error code (or any substring of the error) the action must
	// fail with. Implies success: false.
	Error string `yaml:"error,omitempty"`

	// ID is the expected created or targeted id.
	ID string `yaml:"id,omitempty"`
}

// ReconcileExpect specifies the expected result of a reconcile batch. Nil
// lists are not checked.
type ReconcileExpect struct {
	Created []string `yaml:"created,omitempty"`
	Updated []string `yaml:"updated,omitempty"`
	Deleted []string `yaml:"deleted,omitempty"`
	Skipped *int     `yaml:"skipped,omitempty"`
}

// Assertion validates the final scene.
type Assertion struct {
	// Type specifies the assertion type:
	// - "live_count": number of live elements, optionally of Kind
	// - "bound_text": ID carries a label whose text is Text
	// - "connector_count": number of live connectors, optionally From-To
	// - "no_violations": the scene satisfies every structural invariant
	// - "relationship": a relationship of Kind exists From-To
	Type string `yaml:"type"`

	Count *int   `yaml:"count,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
	ID    string `yaml:"id,omitempty"`
	Text  string `yaml:"text,omitempty"`
	From  string `yaml:"from,omitempty"`
	To    string `yaml:"to,omitempty"`
}

// Assertion type constants.
const (
	AssertLiveCount      = "live_count"
	AssertBoundText      = "bound_text"
	AssertConnectorCount = "connector_count"
	AssertNoViolations   = "no_violations"
	AssertRelationship   = "relationship"
)

// JSON decodes a YAML node through encoding/json, so scenario payloads use
// the same field names as the wire format.
type JSON[T any] struct {
	Value T
}

// UnmarshalYAML implements yaml.Unmarshaler. Unknown fields are rejected.
func (j *JSON[T]) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&j.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Actions == nil && step.Batch == nil:
			return fmt.Errorf("steps[%d]: one of actions or batch is required", i)
		case step.Actions != nil && step.Batch != nil:
			return fmt.Errorf("steps[%d]: actions and batch are mutually exclusive", i)
		case step.Actions != nil && step.Reconciled != nil:
			return fmt.Errorf("steps[%d]: reconciled applies to batch steps only", i)
		case step.Batch != nil && len(step.Expect) > 0:
			return fmt.Errorf("steps[%d]: expect applies to action steps only", i)
		}
		if step.Actions != nil && len(step.Expect) > len(step.Actions.Value) {
			return fmt.Errorf("steps[%d]: %d expectations for %d actions", i, len(step.Expect), len(step.Actions.Value))
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLiveCount, AssertConnectorCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
		if a.Type == AssertConnectorCount && (a.From == "") != (a.To == "") {
			return fmt.Errorf("assertions[%d]: from and to must be given together", index)
		}
	case AssertBoundText:
		if a.ID == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: id and text are required for bound_text", index)
		}
	case AssertRelationship:
		if a.Kind == "" || a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: kind, from and to are required for relationship", index)
		}
	case AssertNoViolations:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
