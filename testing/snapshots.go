package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// UpdateEnv names the environment variable that rewrites snapshots instead
// of comparing against them when set to a non-empty value.
const UpdateEnv = "SCAFFOLD_UPDATE_SNAPSHOTS"

// SnapshotManager compares rendered files against snapshot files stored in
// a directory, usually testdata/snapshots.
type SnapshotManager struct {
	snapshotDir string
	updateMode  bool
	mu          sync.Mutex
	checked     map[string]bool
}

func NewSnapshotManager(snapshotDir string, updateMode bool) *SnapshotManager {
	return &SnapshotManager{
		snapshotDir: snapshotDir,
		updateMode:  updateMode,
		checked:     make(map[string]bool),
	}
}

// NewSnapshotManagerFromEnv enables update mode when UpdateEnv is set.
func NewSnapshotManagerFromEnv(snapshotDir string) *SnapshotManager {
	return NewSnapshotManager(snapshotDir, os.Getenv(UpdateEnv) != "")
}

// Path returns the snapshot file for name.
func (sm *SnapshotManager) Path(name string) string {
	return filepath.Join(sm.snapshotDir, name+".snapshot")
}

// AssertSnapshot compares actual with the stored snapshot for name. In
// update mode the snapshot is written instead.
func (sm *SnapshotManager) AssertSnapshot(name, actual string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.checked[name] = true
	snapshotPath := sm.Path(name)

	if sm.updateMode {
		if err := os.MkdirAll(sm.snapshotDir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		return os.WriteFile(snapshotPath, []byte(actual), 0o644)
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot does not exist: %s (set %s=1 to create)", snapshotPath, UpdateEnv)
		}
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	expected := string(data)
	if expected != actual {
		diff := cmp.Diff(strings.SplitAfter(expected, "\n"), strings.SplitAfter(actual, "\n"))
		return fmt.Errorf("snapshot mismatch for %s (-want +got):\n%s", name, diff)
	}
	return nil
}

// Match is AssertSnapshot reporting failures on t.
func (sm *SnapshotManager) Match(t testing.TB, name, actual string) {
	t.Helper()
	if err := sm.AssertSnapshot(name, actual); err != nil {
		t.Error(err)
	}
}

// Orphans lists snapshot files no assertion has used so far.
func (sm *SnapshotManager) Orphans() ([]string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entries, err := os.ReadDir(sm.snapshotDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var orphans []string
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".snapshot")
		if entry.IsDir() || !ok {
			continue
		}
		if !sm.checked[name] {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
