package history

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	turns     []string
	expiresAt time.Time
}

// MemoryBackend keeps histories in process memory. Each operation holds the
// lock for its whole read-modify-write.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryBackend) PushChatTurn(_ context.Context, key, payload string, maxCount int, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &memoryEntry{}
		m.entries[key] = entry
	}

	turns := make([]string, 0, len(entry.turns)+1)
	turns = append(turns, payload)
	turns = append(turns, entry.turns...)
	if len(turns) > maxCount {
		turns = turns[:maxCount]
	}
	entry.turns = turns
	entry.expiresAt = now.Add(ttl)
	return nil
}

func (m *MemoryBackend) GetChatTurns(_ context.Context, key string, maxCount int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}

	n := len(entry.turns)
	if n > maxCount {
		n = maxCount
	}
	out := make([]string, n)
	copy(out, entry.turns[:n])
	return out, nil
}

func (m *MemoryBackend) DeleteChatTurns(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
