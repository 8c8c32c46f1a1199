package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory — хранилище коллекций в памяти. Используется в тестах и при
// локальном запуске без базы. Коллекции хранятся в сериализованном
// виде, поэтому Load/Save дают точно такой же JSON-круговорот, как и
// PostgreSQL-хранилище.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]byte),
	}
}

// Load десериализует коллекцию name в dest. Отсутствующая коллекция
// оставляет dest без изменений.
func (m *Memory) Load(_ context.Context, name string, dest any) error {
	const op = "storage.Memory.Load"

	m.mu.RLock()
	payload, ok := m.collections[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Save перезаписывает коллекцию name сериализованными records.
func (m *Memory) Save(_ context.Context, name string, records any) error {
	const op = "storage.Memory.Save"

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.mu.Lock()
	m.collections[name] = payload
	m.mu.Unlock()
	return nil
}
