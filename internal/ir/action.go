package ir

import "fmt"

// ActionType tags one kind of mutation request.
type ActionType string

const (
	ActionAddShape      ActionType = "add_shape"
	ActionAddText       ActionType = "add_text"
	ActionAddConnector  ActionType = "add_connector"
	ActionAddConnection ActionType = "add_connection"
	ActionUpdateText    ActionType = "update_text"
	ActionUpdateStyle   ActionType = "update_style"
	ActionDelete        ActionType = "delete"
	ActionMove          ActionType = "move"
	ActionGroup         ActionType = "group"
)

// ValidActionTypes defines the allowed action types.
var ValidActionTypes = map[ActionType]bool{
	ActionAddShape:      true,
	ActionAddText:       true,
	ActionAddConnector:  true,
	ActionAddConnection: true,
	ActionUpdateText:    true,
	ActionUpdateStyle:   true,
	ActionDelete:        true,
	ActionMove:          true,
	ActionGroup:         true,
}

// Direction places a new element relative to an existing one.
type Direction string

const (
	DirectionRight Direction = "right"
	DirectionBelow Direction = "below"
	DirectionLeft  Direction = "left"
	DirectionAbove Direction = "above"
)

// ValidDirections defines the allowed placement directions.
var ValidDirections = map[Direction]bool{
	DirectionRight: true,
	DirectionBelow: true,
	DirectionLeft:  true,
	DirectionAbove: true,
}

// Action is a tagged request for one mutation. It carries just enough data
// to resolve that mutation; which fields matter depends on Type.
//
// Any id field may name an element created earlier in the same batch,
// either by its real id or by the Ref alias the creating action declared.
type Action struct {
	Type ActionType `json:"type"`

	// Ref names the element this action creates, for later actions.
	Ref string `json:"ref,omitempty"`

	// Target of update_text, update_style, delete, move.
	ID string `json:"id,omitempty"`

	// add_shape: kind of shape (defaults to rectangle).
	Shape string `json:"shape,omitempty"`

	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`

	Text     string   `json:"text,omitempty"`
	Label    string   `json:"label,omitempty"`
	FontSize *float64 `json:"fontSize,omitempty"`

	// Relative placement for add_shape/add_text.
	RelativeTo string    `json:"relativeTo,omitempty"`
	Direction  Direction `json:"direction,omitempty"`
	Spacing    *float64  `json:"spacing,omitempty"`

	// add_connector (raw) and add_connection (by ids).
	Points    []Point `json:"points,omitempty"`
	Connector string  `json:"connector,omitempty"`
	SourceID  string  `json:"sourceId,omitempty"`
	TargetID  string  `json:"targetId,omitempty"`

	Style *StylePatch `json:"style,omitempty"`

	// move: relative delta (absolute position uses X/Y).
	DX *float64 `json:"dx,omitempty"`
	DY *float64 `json:"dy,omitempty"`

	// group members.
	IDs []string `json:"ids,omitempty"`
}

// Validate checks field combinations that can be decided without a scene.
// Returns all errors (not fail-fast) for better diagnostics.
func (a *Action) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if !ValidActionTypes[a.Type] {
		add("type", fmt.Sprintf("unknown action type %q", a.Type))
		return errs
	}

	if a.Direction != "" && !ValidDirections[a.Direction] {
		add("direction", fmt.Sprintf("invalid direction %q, must be one of: right, below, left, above", a.Direction))
	}
	if a.Direction != "" && a.RelativeTo == "" {
		add("relativeTo", "direction requires relativeTo")
	}

	switch a.Type {
	case ActionAddShape:
		if a.Shape != "" {
			if k, ok := ParseKind(a.Shape); !ok || (!k.IsShape() && k != KindFrame) {
				add("shape", fmt.Sprintf("%q is not a shape", a.Shape))
			}
		}
	case ActionAddText:
		if a.Text == "" {
			add("text", "text is required")
		}
	case ActionAddConnector:
		if len(a.Points) < 2 {
			add("points", "at least two points are required")
		}
	case ActionAddConnection:
		if a.SourceID == "" {
			add("sourceId", "sourceId is required")
		}
		if a.TargetID == "" {
			add("targetId", "targetId is required")
		}
	case ActionUpdateText:
		if a.ID == "" {
			add("id", "id is required")
		}
		if a.Text == "" && a.Label == "" {
			add("text", "text is required")
		}
	case ActionUpdateStyle:
		if a.ID == "" {
			add("id", "id is required")
		}
		if a.Style.Empty() {
			add("style", "style must change at least one field")
		}
	case ActionDelete:
		if a.ID == "" {
			add("id", "id is required")
		}
	case ActionMove:
		if a.ID == "" {
			add("id", "id is required")
		}
		absolute := a.X != nil || a.Y != nil
		relative := a.DX != nil || a.DY != nil
		switch {
		case !absolute && !relative:
			add("x", "move requires a position (x/y) or a delta (dx/dy)")
		case absolute && relative:
			add("dx", "move takes either a position or a delta, not both")
		}
	case ActionGroup:
		if len(a.IDs) < 2 {
			add("ids", fmt.Sprintf("group requires at least 2 ids, got %d", len(a.IDs)))
		}
	}

	return errs
}

// ActionResult is the outcome of one action. Results are independent of
// sibling actions in the batch.
type ActionResult struct {
	Index   int        `json:"index"`
	Type    ActionType `json:"type"`
	Success bool       `json:"success"`
	ID      string     `json:"id,omitempty"`
	Error   string     `json:"error,omitempty"`
}
