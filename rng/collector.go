// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"errors"
	"fmt"

	"github.com/tevino/abool"

	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/metrics"
)

// Collector feeds raw readings through the normalizer into the pool.
type Collector struct {
	pool       *entropy.Pool
	normalizer *entropy.Normalizer
	halted     [3]*abool.AtomicBool
}

// NewCollector returns a collector feeding the given pool.
func NewCollector(pool *entropy.Pool) *Collector {
	c := &Collector{
		pool:       pool,
		normalizer: entropy.NewNormalizer(),
	}
	for _, src := range entropy.Sources {
		c.halted[src] = abool.New()
	}
	return c
}

// Pool returns the pool fed by the collector.
func (c *Collector) Pool() *entropy.Pool {
	return c.pool
}

// Halted returns whether the source was halted.
func (c *Collector) Halted(src entropy.Source) bool {
	if !src.Valid() {
		return false
	}
	return c.halted[src].IsSet()
}

// FeedMouse feeds a mouse reading.
func (c *Collector) FeedMouse(r entropy.MouseReading) error {
	return c.Feed(r)
}

// FeedScheduler feeds a scheduler reading.
func (c *Collector) FeedScheduler(r entropy.SchedulerReading) error {
	return c.Feed(r)
}

// FeedAudio feeds an audio reading.
func (c *Collector) FeedAudio(r entropy.AudioReading) error {
	return c.Feed(r)
}

// Feed normalizes the reading and appends the fragment to the pool.
// Invalid readings are discarded and returned as error. The pool is not
// touched in that case.
func (c *Collector) Feed(r entropy.Reading) error {
	src, err := entropy.SourceOf(r)
	if err != nil {
		return err
	}
	if src.Valid() && c.halted[src].IsSet() {
		return fmt.Errorf("%w: %s", ErrSourceHalted, src)
	}

	f, err := c.normalizer.Normalize(r)
	if err != nil {
		metrics.ReadingRejected(src.String())
		return err
	}

	return c.Append(f)
}

// Append appends an already normalized fragment. A fragment that does not
// fit its source halts that source: all further readings of the source are
// refused with ErrSourceHalted.
func (c *Collector) Append(f entropy.Fragment) error {
	if f.Source.Valid() && c.halted[f.Source].IsSet() {
		return fmt.Errorf("%w: %s", ErrSourceHalted, f.Source)
	}

	evicted, err := c.pool.Append(f)
	if err != nil {
		if errors.Is(err, entropy.ErrFragmentShapeMismatch) && f.Source.Valid() {
			if c.halted[f.Source].SetToIf(false, true) {
				metrics.SourceHalted(f.Source.String())
				log.Criticalf("rng: halting %s entropy collection: %s", f.Source, err)
			}
		}
		return err
	}

	metrics.FragmentAppended(f.Source.String(), evicted)
	return nil
}
