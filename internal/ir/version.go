package ir

// Version constants.
const (
	// SchemaVersion is the version of the canonical record encoding.
	SchemaVersion = "1"

	// EngineVersion is the provgraph engine version.
	EngineVersion = "0.1.0"
)
