// Package memstore is an in-process implementation of repository.Store with
// optimistic concurrency control.
//
// Documents are kept JSON-encoded per collection. Every document and every
// query index carries a version drawn from one monotonic clock. A transaction
// buffers its writes and records the version of everything it read; commit
// fails with apperr.ErrConflict if any of those versions moved. A View holds
// the read lock for its whole body, so it sees a single snapshot.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// Store is the in-memory document store.
type Store struct {
	mu       sync.RWMutex
	clock    uint64
	docs     map[string]map[string][]byte
	versions map[string]uint64
}

var _ repository.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		docs:     make(map[string]map[string][]byte),
		versions: make(map[string]uint64),
	}
}

// RunTransaction runs fn and commits its writes if nothing it read changed.
func (s *Store) RunTransaction(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s, false)
	if err := fn(ctx, t); err != nil {
		// A failure decided on reads that have since moved is a conflict,
		// not a business error.
		s.mu.RLock()
		stale := s.staleRead(t)
		s.mu.RUnlock()
		if stale != "" {
			return apperr.Conflict("transaction conflict on %s", stale)
		}
		return err
	}
	return s.commit(t)
}

// View runs fn against one committed snapshot with writes disabled. Commits
// wait until fn returns.
func (s *Store) View(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := newTx(s, true)
	t.snapshot = true
	return fn(ctx, t)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func docKey(collection, id string) string {
	return "d:" + collection + "/" + id
}

func collectionKey(collection string) string {
	return "c:" + collection
}

func indexKey(collection, field, value string) string {
	return "i:" + collection + "/" + field + "=" + value
}

// read returns the committed bytes and version for a document key. Must be
// called with s.mu held.
func (s *Store) read(collection, id string) ([]byte, uint64) {
	return s.docs[collection][id], s.versions[docKey(collection, id)]
}

// staleRead returns the first key t read whose version has moved, or "".
// Must be called with s.mu held.
func (s *Store) staleRead(t *tx) string {
	for key, seen := range t.reads {
		if s.versions[key] != seen {
			return key
		}
	}
	return ""
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key := s.staleRead(t); key != "" {
		return apperr.Conflict("transaction conflict on %s", key)
	}
	if len(t.writes) == 0 {
		return nil
	}

	for _, w := range t.order {
		p := t.writes[w]
		s.clock++
		if p.deleted {
			delete(s.docs[w.collection], w.id)
		} else {
			if s.docs[w.collection] == nil {
				s.docs[w.collection] = make(map[string][]byte)
			}
			s.docs[w.collection][w.id] = p.data
		}
		s.versions[docKey(w.collection, w.id)] = s.clock
		s.versions[collectionKey(w.collection)] = s.clock
		for _, k := range p.indexes {
			s.versions[k] = s.clock
		}
	}
	return nil
}

type writeKey struct {
	collection string
	id         string
}

type pending struct {
	data    []byte
	deleted bool
	// indexes are the query index keys this write invalidates.
	indexes []string
}

type tx struct {
	s        *Store
	readOnly bool
	// snapshot is set when the caller holds s.mu for the whole transaction.
	snapshot bool
	reads    map[string]uint64
	writes   map[writeKey]*pending
	order    []writeKey
}

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		s:        s,
		readOnly: readOnly,
		reads:    make(map[string]uint64),
		writes:   make(map[writeKey]*pending),
	}
}

func (t *tx) rlock() {
	if !t.snapshot {
		t.s.mu.RLock()
	}
}

func (t *tx) runlock() {
	if !t.snapshot {
		t.s.mu.RUnlock()
	}
}

func (t *tx) observe(key string, version uint64) {
	if _, ok := t.reads[key]; !ok {
		t.reads[key] = version
	}
}

// get decodes one document into dst, preferring this transaction's own
// pending write. It reports whether the document exists.
func (t *tx) get(collection, id string, dst any) (bool, error) {
	if p, ok := t.writes[writeKey{collection, id}]; ok {
		if p.deleted {
			return false, nil
		}
		return true, json.Unmarshal(p.data, dst)
	}

	t.rlock()
	data, version := t.s.read(collection, id)
	t.runlock()

	t.observe(docKey(collection, id), version)
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (t *tx) put(collection, id string, v any, indexes ...string) error {
	if t.readOnly {
		return fmt.Errorf("write %s/%s in read-only transaction", collection, id)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	t.stage(collection, id, &pending{data: data, indexes: indexes})
	return nil
}

// create is put that fails when the document already exists.
func (t *tx) create(collection, id string, v any, indexes ...string) error {
	var raw json.RawMessage
	exists, err := t.get(collection, id, &raw)
	if err != nil {
		return err
	}
	if exists {
		return apperr.InvalidState("%s/%s already exists", collection, id)
	}
	return t.put(collection, id, v, indexes...)
}

func (t *tx) remove(collection, id string, indexes ...string) error {
	if t.readOnly {
		return fmt.Errorf("delete %s/%s in read-only transaction", collection, id)
	}
	t.stage(collection, id, &pending{deleted: true, indexes: indexes})
	return nil
}

func (t *tx) stage(collection, id string, p *pending) {
	k := writeKey{collection, id}
	if prev, ok := t.writes[k]; ok {
		p.indexes = append(p.indexes, prev.indexes...)
	} else {
		t.order = append(t.order, k)
	}
	t.writes[k] = p
}

// scan decodes every document of a collection, overlaying this
// transaction's pending writes, and records index as read. Pass "" to depend
// on the whole collection.
func scan[T any](t *tx, collection, index string) ([]T, error) {
	if index == "" {
		index = collectionKey(collection)
	}

	t.rlock()
	committed := make(map[string][]byte, len(t.s.docs[collection]))
	for id, data := range t.s.docs[collection] {
		committed[id] = data
	}
	version := t.s.versions[index]
	t.runlock()

	t.observe(index, version)

	for k, p := range t.writes {
		if k.collection != collection {
			continue
		}
		if p.deleted {
			delete(committed, k.id)
		} else {
			committed[k.id] = p.data
		}
	}

	ids := make([]string, 0, len(committed))
	for id := range committed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		var v T
		if err := json.Unmarshal(committed[id], &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func filter[T any](in []T, keep func(*T) bool) []T {
	out := in[:0]
	for i := range in {
		if keep(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

func limit[T any](in []T, n int) []T {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}
