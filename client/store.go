package client

import "sync"

// Store is the Local Store: key-value persistence of the last known snapshot
// and the ordered queue of not-yet-acknowledged actions. Implementations do
// no interpretation beyond get/set/append/remove; all state transitions
// happen in the components above. Durable implementations must survive
// process restart.
type Store interface {
	GetSnapshot() (Snapshot, error)
	SetSnapshot(Snapshot) error
	GetQueue() ([]Action, error)
	SetQueue([]Action) error
	AppendToQueue(Action) error
}

// MemoryStore is an in-memory Store used in tests and as the degraded
// fallback when the durable store cannot be opened. All reads return copies
// so callers can never mutate shared state in place.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot Snapshot
	queue    []Action
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetSnapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone(), nil
}

func (s *MemoryStore) SetSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap.Clone()
	return nil
}

func (s *MemoryStore) GetQueue() ([]Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.queue...), nil
}

func (s *MemoryStore) SetQueue(queue []Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append([]Action(nil), queue...)
	return nil
}

func (s *MemoryStore) AppendToQueue(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, a)
	return nil
}
