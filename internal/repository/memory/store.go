// Package memory holds in-process repositories. They copy documents through BSON on every
// read and write so callers never share state with the store, as with a real database.
package memory

import (
	"sync"

	"coastalfit/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type collection[T any] struct {
	mu      sync.RWMutex
	docs    map[primitive.ObjectID]*T
	order   []primitive.ObjectID // insertion order, for stable listings
	id      func(*T) *primitive.ObjectID
	version func(*T) *int64
}

func newCollection[T any](id func(*T) *primitive.ObjectID, version func(*T) *int64) *collection[T] {
	return &collection[T]{
		docs:    make(map[primitive.ObjectID]*T),
		id:      id,
		version: version,
	}
}

func clone[T any](doc *T) *T {
	raw, err := bson.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

// insert assigns an id and version 1, then stores a copy.
func (c *collection[T]) insert(doc *T) primitive.ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := primitive.NewObjectID()
	*c.id(doc) = id
	if c.version != nil {
		*c.version(doc) = 1
	}
	c.docs[id] = clone(doc)
	c.order = append(c.order, id)
	return id
}

func (c *collection[T]) get(id primitive.ObjectID) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(doc), nil
}

func (c *collection[T]) find(match func(*T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []T{}
	for _, id := range c.order {
		doc, ok := c.docs[id]
		if ok && (match == nil || match(doc)) {
			out = append(out, *clone(doc))
		}
	}
	return out
}

func (c *collection[T]) findOne(match func(*T) bool) (*T, error) {
	docs := c.find(match)
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &docs[0], nil
}

// replace stores doc if its version still matches, bumping the version on success.
func (c *collection[T]) replace(doc *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := *c.id(doc)
	current, ok := c.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if c.version != nil {
		if *c.version(current) != *c.version(doc) {
			return repository.ErrVersionConflict
		}
		*c.version(doc)++
	}
	c.docs[id] = clone(doc)
	return nil
}

// modify applies fn to the stored document under the write lock.
func (c *collection[T]) modify(id primitive.ObjectID, fn func(*T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	return fn(doc)
}

func (c *collection[T]) delete(id primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(c.docs, id)
	return nil
}

func (c *collection[T]) deleteWhere(match func(*T) bool) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for id, doc := range c.docs {
		if match(doc) {
			delete(c.docs, id)
			n++
		}
	}
	return n
}
