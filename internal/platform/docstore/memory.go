package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu          sync.RWMutex
	collections map[string][]map[string]any
	closed      bool
}

// NewMemoryStore returns an in-process Store. Documents are kept as JSON
// objects in insertion order.
func NewMemoryStore() Store {
	return &memoryStore{collections: map[string][]map[string]any{}}
}

func (m *memoryStore) Find(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) error {
	if err := checkSlicePtr(out); err != nil {
		return err
	}
	o := applyFindOptions(opts)
	f := filter.normalize()

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	// Encode while locked: writers merge into the stored maps in place.
	docs := make([]map[string]any, 0)
	for _, d := range m.collections[collection] {
		if matches(d, f) {
			docs = append(docs, project(d, o.Fields))
		}
	}
	raw, err := json.Marshal(docs)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("docstore: encode result: %w", err)
	}
	return decodeRaw(raw, out)
}

func (m *memoryStore) FindOne(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) (bool, error) {
	o := applyFindOptions(opts)
	f := filter.normalize()

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return false, ErrClosed
	}
	var raw []byte
	var err error
	for _, d := range m.collections[collection] {
		if matches(d, f) {
			raw, err = json.Marshal(project(d, o.Fields))
			break
		}
	}
	m.mu.RUnlock()

	if err != nil {
		return false, fmt.Errorf("docstore: encode result: %w", err)
	}
	if raw == nil {
		return false, nil
	}
	return true, decodeRaw(raw, out)
}

func (m *memoryStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	f := filter.normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	var n int64
	for _, d := range m.collections[collection] {
		if matches(d, f) {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) InsertOne(ctx context.Context, collection string, doc any) error {
	d, err := toMap(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.collections[collection] = append(m.collections[collection], d)
	return nil
}

func (m *memoryStore) UpsertOne(ctx context.Context, collection string, filter Filter, doc any) (bool, error) {
	set, err := toMap(doc)
	if err != nil {
		return false, err
	}
	f := filter.normalize()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	for _, d := range m.collections[collection] {
		if matches(d, f) {
			mergeInto(d, set)
			return false, nil
		}
	}
	fresh, err := toMap(map[string]any(f))
	if err != nil {
		return false, err
	}
	mergeInto(fresh, set)
	m.collections[collection] = append(m.collections[collection], fresh)
	return true, nil
}

func (m *memoryStore) UpdateOne(ctx context.Context, collection string, filter Filter, set map[string]any) (bool, error) {
	fields, err := toMap(set)
	if err != nil {
		return false, err
	}
	f := filter.normalize()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	for _, d := range m.collections[collection] {
		if matches(d, f) {
			mergeInto(d, fields)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *memoryStore) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
