package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/finagent-ir/finagent/internal/interfaces"
	"github.com/finagent-ir/finagent/internal/models"
)

// ErrNoCheckpoint is returned when a thread has no saved snapshot.
var ErrNoCheckpoint = errors.New("no checkpoint for thread")

// Snapshot is the persisted view of a thread: the merged state, the nodes
// still scheduled, and the pending interrupt prompt if any.
type Snapshot struct {
	Values    State
	Next      []string
	Interrupt string
	Step      int
}

// Checkpointer persists one snapshot per thread ID.
type Checkpointer interface {
	Save(threadID string, snap *Snapshot) error
	Load(threadID string) (*Snapshot, error)
	Delete(threadID string) error
}

// MemorySaver keeps snapshots in process memory. It is the default and is
// what the tests use.
type MemorySaver struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

func NewMemorySaver() *MemorySaver {
	return &MemorySaver{snaps: map[string]*Snapshot{}}
}

func (m *MemorySaver) Save(threadID string, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *snap
	clone.Values = snap.Values.Clone()
	clone.Next = append([]string(nil), snap.Next...)
	m.snaps[threadID] = &clone
	return nil
}

func (m *MemorySaver) Load(threadID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[threadID]
	if !ok {
		return nil, ErrNoCheckpoint
	}
	clone := *snap
	clone.Values = snap.Values.Clone()
	clone.Next = append([]string(nil), snap.Next...)
	return &clone, nil
}

func (m *MemorySaver) Delete(threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, threadID)
	return nil
}

// BadgerSaver persists snapshots through the checkpoint storage service, so
// interrupted runs survive restarts.
type BadgerSaver struct {
	store interfaces.CheckpointStorage
}

func NewBadgerSaver(store interfaces.CheckpointStorage) *BadgerSaver {
	return &BadgerSaver{store: store}
}

func (b *BadgerSaver) Save(threadID string, snap *Snapshot) error {
	data, err := json.Marshal(snap.Values)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return b.store.SaveCheckpoint(&models.Checkpoint{
		ThreadID:  threadID,
		State:     data,
		Next:      append([]string(nil), snap.Next...),
		Interrupt: snap.Interrupt,
		Step:      snap.Step,
		UpdatedAt: time.Now().UTC(),
	})
}

func (b *BadgerSaver) Load(threadID string) (*Snapshot, error) {
	cp, err := b.store.GetCheckpoint(threadID)
	if err != nil {
		return nil, ErrNoCheckpoint
	}
	var values State
	if err := json.Unmarshal(cp.State, &values); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &Snapshot{
		Values:    values,
		Next:      cp.Next,
		Interrupt: cp.Interrupt,
		Step:      cp.Step,
	}, nil
}

func (b *BadgerSaver) Delete(threadID string) error {
	return b.store.DeleteCheckpoint(threadID)
}
