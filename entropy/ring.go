// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import "sync"

// ring is a bounded fragment buffer that evicts the oldest fragment on overflow.
type ring struct {
	sync.Mutex

	buf   []Fragment
	start int
	size  int

	appended uint64
	evicted  uint64
}

func newRing(capacity int) *ring {
	return &ring{
		buf: make([]Fragment, capacity),
	}
}

// push adds a fragment and reports whether the oldest fragment was evicted.
// Caller must hold the lock.
func (r *ring) push(f Fragment) (evicted bool) {
	r.appended++

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = f
		r.size++
		return false
	}

	// full, overwrite oldest
	r.buf[r.start] = f
	r.start = (r.start + 1) % len(r.buf)
	r.evicted++
	return true
}

// copyOut returns the held fragments in arrival order. Caller must hold the lock.
func (r *ring) copyOut() []Fragment {
	out := make([]Fragment, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
