package storage

import (
	"context"
	"sync"

	"github.com/deppfellow/hbnb-api/internal/model"
)

// changeSet holds staged writes. A key is either pending a put, pending a
// delete, or untouched.
type changeSet struct {
	puts    map[model.Kind]map[string][]byte
	deletes map[model.Kind]map[string]struct{}
}

func newChangeSet() *changeSet {
	return &changeSet{
		puts:    map[model.Kind]map[string][]byte{},
		deletes: map[model.Kind]map[string]struct{}{},
	}
}

func (c *changeSet) put(kind model.Kind, id string, doc []byte) {
	delete(c.deletes[kind], id)
	if c.puts[kind] == nil {
		c.puts[kind] = map[string][]byte{}
	}
	c.puts[kind][id] = doc
}

func (c *changeSet) remove(kind model.Kind, id string) {
	delete(c.puts[kind], id)
	if c.deletes[kind] == nil {
		c.deletes[kind] = map[string]struct{}{}
	}
	c.deletes[kind][id] = struct{}{}
}

// lookup reports the staged state of one key.
func (c *changeSet) lookup(kind model.Kind, id string) (doc []byte, deleted bool, staged bool) {
	if doc, ok := c.puts[kind][id]; ok {
		return doc, false, true
	}
	if _, ok := c.deletes[kind][id]; ok {
		return nil, true, true
	}
	return nil, false, false
}

// overlay applies the staged changes of kind on top of the durable documents.
func (c *changeSet) overlay(kind model.Kind, docs map[string][]byte) map[string][]byte {
	for id := range c.deletes[kind] {
		delete(docs, id)
	}
	for id, doc := range c.puts[kind] {
		docs[id] = doc
	}
	return docs
}

// apply returns objects with the change set applied. Inner maps of kinds
// the set does not touch are shared with objects, never modified.
func (c *changeSet) apply(objects map[model.Kind]map[string][]byte) map[model.Kind]map[string][]byte {
	next := make(map[model.Kind]map[string][]byte, len(objects))
	for kind, docs := range objects {
		next[kind] = docs
	}

	touched := map[model.Kind]bool{}
	for kind := range c.puts {
		touched[kind] = true
	}
	for kind := range c.deletes {
		touched[kind] = true
	}
	for kind := range touched {
		docs := make(map[string][]byte, len(objects[kind])+len(c.puts[kind]))
		for id, doc := range objects[kind] {
			docs[id] = doc
		}
		next[kind] = c.overlay(kind, docs)
	}
	return next
}

func (c *changeSet) empty() bool {
	for _, ids := range c.puts {
		if len(ids) > 0 {
			return false
		}
	}
	for _, ids := range c.deletes {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// unit is one unit of work: the writes staged by a caller between two Saves.
type unit struct {
	mu      sync.Mutex
	changes *changeSet
}

func newUnit() *unit {
	return &unit{changes: newChangeSet()}
}

func (u *unit) put(kind model.Kind, id string, doc []byte) {
	u.mu.Lock()
	u.changes.put(kind, id, doc)
	u.mu.Unlock()
}

func (u *unit) remove(kind model.Kind, id string) {
	u.mu.Lock()
	u.changes.remove(kind, id)
	u.mu.Unlock()
}

func (u *unit) lookup(kind model.Kind, id string) ([]byte, bool, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.changes.lookup(kind, id)
}

func (u *unit) overlay(kind model.Kind, docs map[string][]byte) map[string][]byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.changes.overlay(kind, docs)
}

// take hands the staged writes to a Save and leaves the unit empty. The
// writes are gone from the unit whether or not the flush succeeds.
func (u *unit) take() *changeSet {
	u.mu.Lock()
	defer u.mu.Unlock()
	changes := u.changes
	u.changes = newChangeSet()
	return changes
}

type unitKey struct{}

// Begin returns a context carrying a new unit of work. New and Delete called
// with it stage into that unit only, reads through it see those staged
// writes, and Save with it flushes exactly them. Calls made without a unit
// share the store's own unit.
func Begin(ctx context.Context) context.Context {
	return context.WithValue(ctx, unitKey{}, newUnit())
}

// unitOf returns the unit carried by ctx, or shared when there is none.
func unitOf(ctx context.Context, shared *unit) *unit {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok {
		return u
	}
	return shared
}
