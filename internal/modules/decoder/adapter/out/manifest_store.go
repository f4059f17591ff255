package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"vscan/internal/modules/decoder/domain"
	decoderout "vscan/internal/modules/decoder/port/out"
)

// FileManifestStore reads decoders.json: a JSON array of manifests.
type FileManifestStore struct {
	dir  string
	path string
}

// NewFileManifestStore reads the manifest list at path. Binaries may use
// $VARS; relative ones resolve against the directory holding the file.
func NewFileManifestStore(path string) decoderout.ManifestStore {
	return &FileManifestStore{dir: filepath.Dir(path), path: path}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open decoder manifests: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	var manifests []domain.Manifest
	if err := dec.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(s.path), err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: trailing data after manifest list", filepath.Base(s.path))
	}
	for i := range manifests {
		manifests[i].Binary = s.resolve(manifests[i].Binary)
	}
	return manifests, nil
}

func (s *FileManifestStore) resolve(binary string) string {
	if binary == "" {
		return ""
	}
	binary = os.ExpandEnv(binary)
	if filepath.IsAbs(binary) {
		return filepath.Clean(binary)
	}
	return filepath.Join(s.dir, binary)
}
