package ir

// Version constants for the scene wire format and engine.
const (
	// SchemaVersion is the scene wire format version.
	SchemaVersion = "1"

	// EngineVersion is the scenekit engine version.
	EngineVersion = "0.1.0"

	// Source tags scenes produced by this engine.
	Source = "scenekit"
)
