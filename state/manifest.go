// Package state records which files a scaffold run produced.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is the manifest's file name inside the output root.
const ManifestFile = ".scaffold.manifest.json"

const generatorName = "scaffold"

type ManifestEntry struct {
	Path     string `json:"path"`
	Hash     string `json:"hash"`
	Size     int64  `json:"size"`
	Template string `json:"template"`
}

type Manifest struct {
	ID         string                   `json:"id"`
	Generator  string                   `json:"generator"`
	Backend    string                   `json:"backend"`
	Generated  time.Time                `json:"generated"`
	OutputRoot string                   `json:"output_root"`
	Entries    map[string]ManifestEntry `json:"entries"`
}

// NewManifest starts a manifest for one run. Every run gets a fresh ID.
func NewManifest(backend, outputRoot string) *Manifest {
	return &Manifest{
		ID:         uuid.NewString(),
		Generator:  generatorName,
		Backend:    backend,
		Generated:  time.Now().UTC(),
		OutputRoot: outputRoot,
		Entries:    make(map[string]ManifestEntry),
	}
}

// Record adds or replaces the entry for path.
func (m *Manifest) Record(path, template string, content []byte) {
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	m.Entries[path] = ManifestEntry{
		Path:     path,
		Hash:     Hash(content),
		Size:     int64(len(content)),
		Template: template,
	}
}

// Paths returns the recorded paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Entries))
	for p := range m.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Stale returns paths recorded in prev that m no longer produces, such as
// server-only files left behind after switching to wasm-target.
func (m *Manifest) Stale(prev *Manifest) []string {
	if prev == nil {
		return nil
	}
	var stale []string
	for _, p := range prev.Paths() {
		if _, ok := m.Entries[p]; !ok {
			stale = append(stale, p)
		}
	}
	return stale
}

// Hash returns the hex sha256 of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

type ManifestManager struct {
	outputRoot   string
	manifestPath string
}

func NewManifestManager(outputRoot string) *ManifestManager {
	return &ManifestManager{
		outputRoot:   outputRoot,
		manifestPath: filepath.Join(outputRoot, ManifestFile),
	}
}

func (mm *ManifestManager) Path() string {
	return mm.manifestPath
}

// Load reads the manifest of the previous run. It returns nil, nil when the
// output root has none.
func (mm *ManifestManager) Load() (*Manifest, error) {
	file, err := os.Open(mm.manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	var manifest Manifest
	if err := json.NewDecoder(file).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &manifest, nil
}

func (mm *ManifestManager) Save(manifest *Manifest) error {
	if err := os.MkdirAll(mm.outputRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmpPath := mm.manifestPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary manifest file: %w", err)
	}

	if err := os.Rename(tmpPath, mm.manifestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move manifest file: %w", err)
	}
	return nil
}

// Changed reports whether the file at path differs from its recorded entry.
// Unrecorded or missing files count as changed.
func (mm *ManifestManager) Changed(manifest *Manifest, path string) (bool, error) {
	entry, ok := manifest.Entries[path]
	if !ok {
		return true, nil
	}

	content, err := os.ReadFile(filepath.Join(mm.outputRoot, path))
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return Hash(content) != entry.Hash, nil
}
