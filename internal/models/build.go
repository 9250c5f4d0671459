package models

// FilesystemVariant identifies the on-device storage filesystem a firmware
// build targets.
type FilesystemVariant int

const (
	// FilesystemLittleFS is the LittleFS variant. It is also the fallback
	// when a target id does not name its filesystem.
	FilesystemLittleFS FilesystemVariant = iota
	// FilesystemSPIFFS is the SPIFFS variant.
	FilesystemSPIFFS
)

// String returns the conventional spelling of the variant.
func (v FilesystemVariant) String() string {
	switch v {
	case FilesystemSPIFFS:
		return "SPIFFS"
	case FilesystemLittleFS:
		return "LittleFS"
	default:
		return "unknown"
	}
}

// BuildContext carries the identity inputs of one build invocation.
// It is computed fresh each time and never persisted.
type BuildContext struct {
	TargetID     string
	IsTestTarget bool
	Filesystem   FilesystemVariant
	BuildDate    string // YYYY.MM.DD, UTC
	RevisionID   string // short commit hash
	ArtifactName string // empty until named
}

// DependencyEdge declares that Target must be rebuilt when Source changes.
type DependencyEdge struct {
	Target string
	Source string
}
