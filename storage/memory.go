package storage

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Memory is a Store kept in a linked hash map, so iteration follows
// insertion order.
type Memory struct {
	mu      sync.RWMutex
	records *linkedhashmap.Map
}

func NewMemory() *Memory {
	return &Memory{records: linkedhashmap.New()}
}

func (m *Memory) Store(_ context.Context, r Record) error {
	if err := validate(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records.Put(r.Code, clone(r))
	return nil
}

func (m *Memory) Load(_ context.Context, code string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, found := m.records.Get(code)
	if !found {
		return Record{}, ErrNotFound
	}
	return clone(v.(Record)), nil
}

func (m *Memory) LoadAll(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, m.records.Size())
	it := m.records.Iterator()
	for it.Next() {
		out = append(out, clone(it.Value().(Record)))
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.records.Get(code); !found {
		return ErrNotFound
	}
	m.records.Remove(code)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) replace(records []Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records.Clear()
	for _, r := range records {
		m.records.Put(r.Code, r)
	}
}

func clone(r Record) Record {
	r.Template = append([]byte(nil), r.Template...)
	return r
}
