package version

// Version of the typewalk binary.
const Version = "0.3.0"

// ConfigSchemaVersion is the highest config `version` this build understands.
const ConfigSchemaVersion = 1

// Report schema identifiers, carried in exported reports so consumers can
// detect incompatible producers. They hold no logic.
const (
	ReportSchemaVersion = 1
	ReportSchemaID      = "e58db6a216a862a9e127d2986d1c377f"
)
