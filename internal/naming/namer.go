package naming

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitsuqtt/buildident/internal/models"
)

// ErrIncompleteContext is returned when the date or revision is missing.
var ErrIncompleteContext = errors.New("build context is incomplete")

// IsTestTarget reports whether targetID names a test build.
func (p Profile) IsTestTarget(targetID string) bool {
	return p.TestPrefix != "" && strings.HasPrefix(targetID, p.TestPrefix)
}

// ClassifyFilesystem derives the filesystem from the target id. Without
// the marker the target is treated as the non-default variant.
func (p Profile) ClassifyFilesystem(targetID string) models.FilesystemVariant {
	if p.FilesystemMarker != "" && strings.Contains(targetID, p.FilesystemMarker) {
		return models.FilesystemSPIFFS
	}
	return models.FilesystemLittleFS
}

// NewContext starts a BuildContext for targetID. Date and revision are
// filled in by the caller.
func (p Profile) NewContext(targetID string) models.BuildContext {
	return models.BuildContext{
		TargetID:     targetID,
		IsTestTarget: p.IsTestTarget(targetID),
		Filesystem:   p.ClassifyFilesystem(targetID),
	}
}

func (p Profile) suffix(fs models.FilesystemVariant) string {
	if !p.FilesystemSuffix || fs == models.FilesystemSPIFFS {
		return ""
	}
	return p.SuffixLiteral
}

// Compose returns the artifact name for bc. It is a pure function of the
// target id, filesystem, date and revision. For test targets it returns
// an empty name and no error.
func (p Profile) Compose(bc models.BuildContext) (string, error) {
	if bc.IsTestTarget {
		return "", nil
	}
	if bc.TargetID == "" || bc.BuildDate == "" || bc.RevisionID == "" {
		return "", fmt.Errorf("%w: target=%q date=%q revision=%q", ErrIncompleteContext, bc.TargetID, bc.BuildDate, bc.RevisionID)
	}

	name := fmt.Sprintf("%s-%s%s-%s-%s", p.Product, bc.TargetID, p.suffix(bc.Filesystem), bc.BuildDate, bc.RevisionID)
	if p.FoldSeparators {
		name = strings.ReplaceAll(name, "_", "-")
	}
	return name, nil
}

// Stamp fills bc.ArtifactName and returns it.
func (p Profile) Stamp(bc *models.BuildContext) (string, error) {
	name, err := p.Compose(*bc)
	if err != nil {
		return "", err
	}
	bc.ArtifactName = name
	return name, nil
}
