// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package history

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/safing/entropyrng/formats/dsd"
	"github.com/safing/entropyrng/utils"
)

var (
	bucketValues = []byte("values")
	bucketMeta   = []byte("meta")
	keyCount     = []byte("count")
)

// BBolt is a store persisting batches in a bbolt database. Batches are
// stored as CBOR under big-endian sequence keys.
type BBolt struct {
	db *bbolt.DB
}

// OpenBBolt opens or creates a bbolt backed store.
func OpenBBolt(path string) (*BBolt, error) {
	if err := utils.EnsureParentDirectory(path, 0o700); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketValues, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BBolt{db: db}, nil
}

// Append implements Store.
func (b *BBolt) Append(batch Batch) error {
	data, err := dsd.Dump(batch, dsd.CBOR)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketValues)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		if err := bucket.Put(key, data); err != nil {
			return err
		}

		meta := tx.Bucket(bucketMeta)
		count := make([]byte, 8)
		binary.BigEndian.PutUint64(count, readCount(meta)+uint64(len(batch.Values)))
		return meta.Put(keyCount, count)
	})
}

func readCount(meta *bbolt.Bucket) uint64 {
	value := meta.Get(keyCount)
	if len(value) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(value)
}

// Batches implements Store.
func (b *BBolt) Batches() ([]Batch, error) {
	var batches []Batch
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketValues).ForEach(func(k, v []byte) error {
			var batch Batch
			if _, err := dsd.Load(v, &batch); err != nil {
				return fmt.Errorf("failed to load batch %x: %w", k, err)
			}
			batches = append(batches, batch)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// All implements Store.
func (b *BBolt) All() ([]int, error) {
	batches, err := b.Batches()
	if err != nil {
		return nil, err
	}
	return flatten(batches), nil
}

// Len implements Store.
func (b *BBolt) Len() (int, error) {
	var count uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		count = readCount(tx.Bucket(bucketMeta))
		return nil
	})
	return int(count), err
}

// Close implements Store.
func (b *BBolt) Close() error {
	return b.db.Close()
}
