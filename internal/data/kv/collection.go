package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// Collection is a typed view over one engine collection, encoding values as JSON.
type Collection[T any] struct {
	engine Engine
	name   string
}

func NewCollection[T any](engine Engine, name string) *Collection[T] {
	return &Collection[T]{engine: engine, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Insert(ctx context.Context, id string, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.engine.Insert(ctx, c.name, id, b)
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	b, err := c.engine.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(id, b)
}

// Find lazily yields every value matching pred, in creation order. A nil
// pred matches everything.
func (c *Collection[T]) Find(ctx context.Context, pred func(*T) bool) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for rec, err := range c.engine.Scan(ctx, c.name) {
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := c.decode(rec.ID, rec.Data)
			if err != nil {
				yield(nil, err)
				return
			}
			if pred != nil && !pred(v) {
				continue
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect drains Find into a slice.
func (c *Collection[T]) Collect(ctx context.Context, pred func(*T) bool) ([]*T, error) {
	out := []*T{}
	for v, err := range c.Find(ctx, pred) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies mutate atomically to the stored value. The mutator may run
// more than once when a backend retries a lost race, so it must be pure.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	b, err := c.engine.Update(ctx, c.name, id, func(current []byte) ([]byte, error) {
		v, err := c.decode(id, current)
		if err != nil {
			return nil, err
		}
		if err := mutate(v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	return c.decode(id, b)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.engine.Delete(ctx, c.name, id)
}

func (c *Collection[T]) decode(id string, b []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return &v, nil
}
