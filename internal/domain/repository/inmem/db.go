// Package inmem is a process-local document store used for local runs and
// tests. Documents are kept JSON-encoded so reads always return copies and
// go through the same decoding as the PostgreSQL store.
package inmem

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"daily_judge/internal/common"
)

type DB struct {
	mutex  sync.RWMutex
	tables map[string]map[string][]byte
}

func NewDB() *DB {
	return &DB{tables: make(map[string]map[string][]byte)}
}

func (db *DB) table(name string) map[string][]byte {
	t, ok := db.tables[name]
	if !ok {
		t = make(map[string][]byte)
		db.tables[name] = t
	}
	return t
}

func (db *DB) get(table, id string, dst any) error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	data, ok := db.tables[table][id]
	if !ok {
		return common.ErrNotFound
	}
	return json.Unmarshal(data, dst)
}

func (db *DB) exists(table, id string) bool {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	_, ok := db.tables[table][id]
	return ok
}

func (db *DB) put(table, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.table(table)[id] = data
	return nil
}

func (db *DB) insert(table, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	db.mutex.Lock()
	defer db.mutex.Unlock()
	t := db.table(table)
	if _, ok := t[id]; ok {
		return fmt.Errorf("%s %q already exists: %w", table, id, common.ErrConflict)
	}
	t[id] = data
	return nil
}

// insertIfAbsent reports whether v was written.
func (db *DB) insertIfAbsent(table, id string, v any) (bool, error) {
	err := db.insert(table, id, v)
	if err == nil {
		return true, nil
	}
	if db.exists(table, id) {
		return false, nil
	}
	return false, err
}

// update decodes the document into dst, applies fn and writes dst back,
// all under one write lock.
func (db *DB) update(table, id string, dst any, fn func() error) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	t := db.table(table)
	data, ok := t[id]
	if !ok {
		return common.ErrNotFound
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	data, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	t[id] = data
	return nil
}

// all decodes every document of a table in id order.
func all[T any](db *DB, table string) ([]T, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t := db.tables[table]
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		var item T
		if err := json.Unmarshal(t[id], &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
