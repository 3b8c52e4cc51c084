package kv

import (
	"context"
	"iter"
	"slices"
	"sync"
)

type memCollection struct {
	order []string
	data  map[string][]byte
}

// idLock is shared by every Update in flight on one record. Entries are
// dropped once refs reaches zero, so the table only holds ids being updated.
type idLock struct {
	mu   sync.Mutex
	refs int
}

type memoryEngine struct {
	mu          sync.RWMutex
	collections map[string]*memCollection

	locksMu sync.Mutex
	locks   map[string]*idLock
}

// NewMemory returns an in-process engine. Nothing survives a restart.
func NewMemory() Engine {
	return &memoryEngine{
		collections: map[string]*memCollection{},
		locks:       map[string]*idLock{},
	}
}

func (m *memoryEngine) coll(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{data: map[string][]byte{}}
		m.collections[name] = c
	}
	return c
}

func (m *memoryEngine) lockID(collection, id string) (unlock func()) {
	key := collection + "\x00" + id
	m.locksMu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &idLock{}
		m.locks[key] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.locksMu.Unlock()
	}
}

func (m *memoryEngine) lockedIDs() int {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	return len(m.locks)
}

func (m *memoryEngine) Insert(ctx context.Context, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, exists := c.data[id]; exists {
		return ErrDuplicateID
	}
	c.data[id] = slices.Clone(data)
	c.order = append(c.order, id)
	return nil
}

func (m *memoryEngine) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	b, ok := c.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(b), nil
}

func (m *memoryEngine) Scan(ctx context.Context, collection string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		m.mu.RLock()
		c, ok := m.collections[collection]
		if !ok {
			m.mu.RUnlock()
			return
		}
		snapshot := make([]Record, 0, len(c.order))
		for _, id := range c.order {
			if b, ok := c.data[id]; ok {
				snapshot = append(snapshot, Record{ID: id, Data: slices.Clone(b)})
			}
		}
		m.mu.RUnlock()

		for _, rec := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (m *memoryEngine) Update(ctx context.Context, collection, id string, fn MutateFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The per-id lock serializes mutators for one record without blocking
	// readers or writers of other records while fn runs.
	unlock := m.lockID(collection, id)
	defer unlock()

	current, err := m.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c.data[id]; !ok {
		return nil, ErrNotFound
	}
	c.data[id] = slices.Clone(next)
	return slices.Clone(next), nil
}

func (m *memoryEngine) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := c.data[id]; !ok {
		return nil
	}
	delete(c.data, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return nil
}

func (m *memoryEngine) Close() error { return nil }
