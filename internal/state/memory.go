package state

import "sync"

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), p...), nil
}

func (m *MemoryBackend) Put(key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), payload...)
	return nil
}
