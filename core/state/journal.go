package state

import (
	"errors"

	"github.com/cemleme/GRB-contracts/storage"
)

// KV is the minimal key/value surface the manager needs.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// Journal buffers writes over a database. Nothing reaches the database until
// Commit; Discard drops every pending write.
type Journal struct {
	base    storage.Database
	writes  map[string][]byte
	deletes map[string]struct{}
}

// NewJournal opens an empty overlay on base.
func NewJournal(base storage.Database) *Journal {
	return &Journal{
		base:    base,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Get reads through the overlay.
func (j *Journal) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, gone := j.deletes[k]; gone {
		return nil, storage.ErrNotFound
	}
	if value, ok := j.writes[k]; ok {
		return append([]byte(nil), value...), nil
	}
	return j.base.Get(key)
}

// Put records a pending write.
func (j *Journal) Put(key []byte, value []byte) error {
	k := string(key)
	delete(j.deletes, k)
	j.writes[k] = append([]byte(nil), value...)
	return nil
}

// Delete records a pending delete.
func (j *Journal) Delete(key []byte) error {
	k := string(key)
	delete(j.writes, k)
	j.deletes[k] = struct{}{}
	return nil
}

// Dirty reports the number of pending operations.
func (j *Journal) Dirty() int { return len(j.writes) + len(j.deletes) }

// Commit flushes pending operations to the database in one batch.
func (j *Journal) Commit() error {
	if j.Dirty() == 0 {
		return nil
	}
	batch := j.base.NewBatch()
	for k, v := range j.writes {
		batch.Put([]byte(k), v)
	}
	for k := range j.deletes {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	j.Discard()
	return nil
}

// Discard drops every pending operation.
func (j *Journal) Discard() {
	j.writes = make(map[string][]byte)
	j.deletes = make(map[string]struct{})
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
