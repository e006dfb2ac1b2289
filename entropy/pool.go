// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"time"
)

// Pool holds the most recent fragments of every source. Appends are
// serialized per source; reads never block appends of other sources.
type Pool struct {
	cfg   PoolConfig
	rings [numSources]*ring

	// mouse activity, guarded by the mouse ring lock
	seenMouse   bool
	lastMouseNs int64
	activeNs    int64
}

// NewPool returns a new, empty pool.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg: cfg,
	}
	for _, src := range Sources {
		p.rings[src] = newRing(cfg.Capacity)
	}
	return p, nil
}

// Config returns the pool configuration.
func (p *Pool) Config() PoolConfig {
	return p.cfg
}

// Append admits a fragment into the ring of its source, evicting the oldest
// fragment if the ring is full. It reports whether a fragment was evicted.
// Fragments that do not fit their source are rejected with a
// *FragmentShapeError and leave the pool unchanged.
func (p *Pool) Append(f Fragment) (evicted bool, err error) {
	if err := f.CheckShape(); err != nil {
		return false, err
	}

	// copy data, fragments in the pool are owned by the pool
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	f.Data = data

	r := p.rings[f.Source]
	r.Lock()
	defer r.Unlock()

	if f.Source == SourceMouse {
		p.trackActivity(f.TimestampNs)
	}
	return r.push(f), nil
}

// trackActivity advances the active duration if the previous mouse fragment
// is less than the inactivity timeout ago. Gaps at or above the timeout are
// not counted, but do not reset the accumulated duration. Late fragments
// neither advance the duration nor move the last activity back.
// Caller must hold the mouse ring lock.
func (p *Pool) trackActivity(ts int64) {
	if p.seenMouse {
		gap := ts - p.lastMouseNs
		if gap > 0 && gap < int64(p.cfg.InactivityTimeout) {
			p.activeNs += gap
		}
	}
	if !p.seenMouse || ts > p.lastMouseNs {
		p.lastMouseNs = ts
	}
	p.seenMouse = true
}

// Count returns the amount of fragments currently held for the source.
func (p *Pool) Count(src Source) int {
	if !src.Valid() {
		return 0
	}
	r := p.rings[src]
	r.Lock()
	defer r.Unlock()
	return r.size
}

// Counters returns how many fragments were appended to and evicted from the source's ring.
func (p *Pool) Counters(src Source) (appended, evicted uint64) {
	if !src.Valid() {
		return 0, 0
	}
	r := p.rings[src]
	r.Lock()
	defer r.Unlock()
	return r.appended, r.evicted
}

// ActiveDuration returns the accumulated duration of active mouse movement.
func (p *Pool) ActiveDuration() time.Duration {
	r := p.rings[SourceMouse]
	r.Lock()
	defer r.Unlock()
	return time.Duration(p.activeNs)
}

// MouseActive returns whether the last mouse fragment is less than the
// inactivity timeout older than nowNs.
func (p *Pool) MouseActive(nowNs int64) bool {
	r := p.rings[SourceMouse]
	r.Lock()
	defer r.Unlock()
	return p.seenMouse && nowNs-p.lastMouseNs < int64(p.cfg.InactivityTimeout)
}

// IsReady evaluates the readiness predicate on the current pool state.
func (p *Pool) IsReady() bool {
	return p.Status().Ready
}

// Status returns a consistent summary of the pool state.
func (p *Pool) Status() Status {
	p.lockAll()
	defer p.unlockAll()
	return p.status()
}

// Snapshot returns an immutable copy of all currently held fragments.
// Appends after the snapshot do not affect it.
func (p *Pool) Snapshot() *View {
	p.lockAll()
	defer p.unlockAll()

	v := &View{
		status: p.status(),
	}
	for _, src := range Sources {
		v.fragments[src] = p.rings[src].copyOut()
	}
	return v
}

// status must be called with all locks held.
func (p *Pool) status() Status {
	s := Status{
		MouseSamples:     p.rings[SourceMouse].size,
		SchedulerSamples: p.rings[SourceScheduler].size,
		AudioSamples:     p.rings[SourceAudio].size,
		ActiveDuration:   time.Duration(p.activeNs),
		LastMouseNs:      p.lastMouseNs,
		Requirements:     p.cfg.Requirements,
	}
	s.Ready = p.cfg.Satisfied(s.MouseSamples, s.AudioSamples, s.ActiveDuration)
	return s
}

// lockAll locks all rings in source order.
func (p *Pool) lockAll() {
	for _, src := range Sources {
		p.rings[src].Lock()
	}
}

func (p *Pool) unlockAll() {
	for i := len(Sources) - 1; i >= 0; i-- {
		p.rings[Sources[i]].Unlock()
	}
}
