// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package history

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger"

	"github.com/safing/entropyrng/formats/dsd"
	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/utils"
)

var (
	badgerBatchPrefix = []byte("batch/")
	badgerSeqKey      = []byte("meta/seq")
	badgerCountKey    = []byte("meta/count")
)

// Badger is a store persisting batches in a badger database directory.
// Batches are stored as CBOR under the batch prefix and a big-endian
// sequence number.
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence
}

// badgerLogger sends badger's logs to the program log. Its info logs are
// debug level for us.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, v ...interface{})   { log.Errorf("history: badger: "+format, v...) }
func (badgerLogger) Warningf(format string, v ...interface{}) { log.Warningf("history: badger: "+format, v...) }
func (badgerLogger) Infof(format string, v ...interface{})    { log.Debugf("history: badger: "+format, v...) }
func (badgerLogger) Debugf(format string, v ...interface{})   { log.Tracef("history: badger: "+format, v...) }

// OpenBadger opens or creates a badger backed store in the given directory.
func OpenBadger(dir string) (*Badger, error) {
	if err := utils.EnsureDirectory(dir, 0o700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	seq, err := db.GetSequence(badgerSeqKey, 100)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Badger{db: db, seq: seq}, nil
}

func batchKey(n uint64) []byte {
	key := make([]byte, len(badgerBatchPrefix)+8)
	copy(key, badgerBatchPrefix)
	binary.BigEndian.PutUint64(key[len(badgerBatchPrefix):], n)
	return key
}

// Append implements Store.
func (b *Badger) Append(batch Batch) error {
	data, err := dsd.Dump(batch, dsd.CBOR)
	if err != nil {
		return err
	}
	n, err := b.seq.Next()
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		count, err := badgerCount(txn)
		if err != nil {
			return err
		}
		if err := txn.Set(batchKey(n), data); err != nil {
			return err
		}

		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, count+uint64(len(batch.Values)))
		return txn.Set(badgerCountKey, value)
	})
}

func badgerCount(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(badgerCountKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(value), nil
}

// Batches implements Store.
func (b *Badger) Batches() ([]Batch, error) {
	var batches []Batch
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(badgerBatchPrefix); it.ValidForPrefix(badgerBatchPrefix); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			var batch Batch
			if _, err := dsd.Load(data, &batch); err != nil {
				return fmt.Errorf("failed to load batch %x: %w", item.Key(), err)
			}
			batches = append(batches, batch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// All implements Store.
func (b *Badger) All() ([]int, error) {
	batches, err := b.Batches()
	if err != nil {
		return nil, err
	}
	return flatten(batches), nil
}

// Len implements Store.
func (b *Badger) Len() (int, error) {
	var count uint64
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		count, err = badgerCount(txn)
		return err
	})
	return int(count), err
}

// Close implements Store. Unused sequence numbers are returned first.
func (b *Badger) Close() error {
	if err := b.seq.Release(); err != nil {
		log.Warningf("history: failed to release badger sequence: %s", err)
	}
	return b.db.Close()
}
