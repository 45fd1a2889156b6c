package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "poolintake/internal/platform/errors"

	"poolintake/internal/modules/capture/domain"
	captureout "poolintake/internal/modules/capture/port/out"
)

const manifestFileName = "capture.json"

// FileManifestStore reads plugin manifests from <pluginsDir>/capture.json.
// Relative binary paths resolve against the plugins directory so a bundle can
// be moved as a unit.
type FileManifestStore struct {
	pluginsDir string
}

func NewFileManifestStore(pluginsDir string) *FileManifestStore {
	return &FileManifestStore{pluginsDir: pluginsDir}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	path := filepath.Join(s.pluginsDir, manifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read capture manifests: %v", apperrors.ErrPersistence, err)
	}

	var manifests []domain.Manifest
	if err := json.Unmarshal(data, &manifests); err != nil {
		return nil, fmt.Errorf("%w: parse capture manifests: %v", apperrors.ErrPersistence, err)
	}
	for i, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, fmt.Errorf("%w: manifest %q: %v", apperrors.ErrValidation, manifest.Name, err)
		}
		if !filepath.IsAbs(manifest.Binary) {
			manifests[i].Binary = filepath.Join(s.pluginsDir, manifest.Binary)
		}
	}
	return manifests, nil
}

var _ captureout.ManifestStore = (*FileManifestStore)(nil)
