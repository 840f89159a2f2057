package utils

import (
	"strings"
	"sync"
)

// NormalizeNewlines rewrites CRLF and bare CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// ErrJSON produces a standard JSON error response.
func ErrJSON(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

// LimitStr returns a string truncated to n characters with "..." appended if longer.
func LimitStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SyncMap is a generic RWMutex-guarded map.
type SyncMap[M ~map[K]V, K comparable, V any] struct {
	mu   sync.RWMutex
	data M
}

func NewSyncMap[M ~map[K]V, K comparable, V any]() *SyncMap[M, K, V] {
	return &SyncMap[M, K, V]{
		data: make(map[K]V),
	}
}

func (m *SyncMap[M, K, V]) Load(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *SyncMap[M, K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *SyncMap[M, K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *SyncMap[M, K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Map returns a shallow copy safe to iterate or serialize.
func (m *SyncMap[M, K, V]) Map() M {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(M, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}
