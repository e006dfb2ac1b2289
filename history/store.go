// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package history keeps the values generated during the lifetime of the
// service, so they can be validated later.
package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/copystructure"
)

// ErrClosed is returned when using a closed store.
var ErrClosed = errors.New("history store closed")

// Backends.
const (
	BackendBBolt  = "bbolt"
	BackendBadger = "badger"
)

// Batch is the result of one generate call.
type Batch struct {
	Session     string `json:"session"`
	TimestampNs int64  `json:"ts"`
	Values      []int  `json:"values"`
}

// Store persists batches of generated values.
type Store interface {
	Append(b Batch) error
	Batches() ([]Batch, error)
	All() ([]int, error)
	Len() (int, error)
	Close() error
}

// Open returns a store of the backend at the given path, or a memory store
// if the path is empty. The bbolt backend uses a file, badger a directory.
func Open(backend, path string) (Store, error) {
	if path == "" {
		return NewMemory(), nil
	}

	switch backend {
	case BackendBBolt, "":
		return OpenBBolt(path)
	case BackendBadger:
		return OpenBadger(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// copyBatches returns a deep copy, so callers never share value slices
// with the store.
func copyBatches(batches []Batch) []Batch {
	if len(batches) == 0 {
		return nil
	}
	copied, err := copystructure.Copy(batches)
	if err != nil {
		// only possible for unsupported types, which Batch does not contain
		panic(fmt.Sprintf("history: failed to copy batches: %s", err))
	}
	return copied.([]Batch)
}

func flatten(batches []Batch) []int {
	size := 0
	for _, b := range batches {
		size += len(b.Values)
	}
	values := make([]int, 0, size)
	for _, b := range batches {
		values = append(values, b.Values...)
	}
	return values
}

// Memory is a store that lives in memory only.
type Memory struct {
	lock    sync.RWMutex
	batches []Batch
	count   int
	closed  bool
}

// NewMemory returns a new memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Store.
func (m *Memory) Append(b Batch) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.batches = append(m.batches, copyBatches([]Batch{b})...)
	m.count += len(b.Values)
	return nil
}

// Batches implements Store.
func (m *Memory) Batches() ([]Batch, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	return copyBatches(m.batches), nil
}

// All implements Store.
func (m *Memory) All() ([]int, error) {
	batches, err := m.Batches()
	if err != nil {
		return nil, err
	}
	return flatten(batches), nil
}

// Len implements Store.
func (m *Memory) Len() (int, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	return m.count, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.closed = true
	m.batches = nil
	return nil
}
