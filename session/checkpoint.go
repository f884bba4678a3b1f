package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/delegatefabric/fabric/core"
)

// CheckpointStore persists SessionCheckpoints atomically under
// checkpoints/<session_id>_checkpoint.json, replacing the prior version
// on each save. A save whose data hashes identically to the last saved
// checkpoint for that session is skipped.
type CheckpointStore struct {
	dir string

	mu         sync.Mutex
	lastHashes map[string]string
}

func NewCheckpointStore(dir string) *CheckpointStore {
	return &CheckpointStore{dir: dir, lastHashes: make(map[string]string)}
}

func (s *CheckpointStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+"_checkpoint.json")
}

// Save writes cp atomically unless its Data is unchanged from the last
// checkpoint saved for cp.SessionID, in which case it's a no-op and Save
// returns false.
func (s *CheckpointStore) Save(cp Checkpoint) (written bool, err error) {
	hash := stateHash(cp.Data)

	s.mu.Lock()
	if s.lastHashes[cp.SessionID] == hash {
		s.mu.Unlock()
		emitCheckpointWrite(false)
		return false, nil
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return false, fmt.Errorf("session: marshal checkpoint: %w", err)
	}

	if err := atomicWriteFile(s.path(cp.SessionID), data, 0o644); err != nil {
		return false, fmt.Errorf("session: write checkpoint: %w", err)
	}

	s.mu.Lock()
	s.lastHashes[cp.SessionID] = hash
	s.mu.Unlock()

	emitCheckpointWrite(true)
	return true, nil
}

func emitCheckpointWrite(written bool) {
	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("session.checkpoint.writes", "written", fmt.Sprint(written))
	}
}

// Load reads the last saved checkpoint for sessionID.
func (s *CheckpointStore) Load(sessionID string) (Checkpoint, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("session: read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("session: parse checkpoint: %w", err)
	}
	return cp, nil
}
