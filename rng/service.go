// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/safing/entropyrng/crypto/hash"
	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/metrics"
	"github.com/safing/entropyrng/modules"
)

// Service owns the entropy pool of one collection session and everything
// operating on it. The pool is created when the service starts and dropped
// when it stops.
type Service struct {
	module          *modules.Module
	schedulerSource SchedulerSource

	lock      sync.RWMutex
	session   uuid.UUID
	pool      *entropy.Pool
	collector *Collector
	extractor *Extractor
	stream    *Stream
	digest    hash.Algorithm
	cancel    context.CancelFunc
}

// ServiceStatus describes the state of the service.
type ServiceStatus struct {
	Session     string
	Pool        entropy.Status
	MouseActive bool
	Halted      []string
	Digest      string
	Range       uint64
	Strategy    string
	Calls       uint64
}

// NewService registers the "rng" module. The scheduler source is sampled
// while the module runs; pass nil to only use externally fed readings.
func NewService(schedulerSource SchedulerSource) *Service {
	s := &Service{
		schedulerSource: schedulerSource,
	}
	s.module = modules.Register("rng", s.prep, s.start, s.stop, "config")
	return s
}

func (s *Service) prep() error {
	return registerConfig()
}

// PoolConfigFromOptions returns the pool configuration of the current config options.
func PoolConfigFromOptions() entropy.PoolConfig {
	return entropy.PoolConfig{
		Capacity:          int(poolCapacity()),
		InactivityTimeout: time.Duration(inactivityTimeoutMs()) * time.Millisecond,
		Requirements: entropy.Requirements{
			MinMouseSamples:   int(minMouseSamples()),
			MinActiveDuration: time.Duration(minActiveSeconds()) * time.Second,
			MinAudioSamples:   int(minAudioSamples()),
			AudioEnabled:      audioEnabled(),
		},
	}
}

func (s *Service) start() error {
	pool, err := entropy.NewPool(PoolConfigFromOptions())
	if err != nil {
		return err
	}

	digest, err := hash.FromName(digestName())
	if err != nil {
		return err
	}

	extractor, err := NewExtractor(ExtractorConfig{
		Digest:                 digest,
		Range:                  uint64(outputRange()),
		TruncationBits:         int(truncationBits()),
		AllowRejectionSampling: allowRejection(),
	})
	if err != nil {
		return err
	}

	stream, err := NewStream(streamCipher(), digest)
	if err != nil {
		return err
	}

	session, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to create session id: %w", err)
	}

	collector := NewCollector(pool)
	ctx, cancel := context.WithCancel(s.module.Ctx)

	s.lock.Lock()
	s.session = session
	s.pool = pool
	s.collector = collector
	s.extractor = extractor
	s.stream = stream
	s.digest = digest
	s.cancel = cancel
	s.lock.Unlock()

	metrics.SetPoolStatsFunc(func() metrics.PoolStats {
		status := pool.Status()
		return metrics.PoolStats{
			MouseSamples:     status.MouseSamples,
			SchedulerSamples: status.SchedulerSamples,
			AudioSamples:     status.AudioSamples,
			ActiveSeconds:    status.ActiveDuration.Seconds(),
			Ready:            status.Ready,
		}
	})

	if s.schedulerSource != nil && schedulerEnabled() {
		src := s.schedulerSource
		interval := time.Duration(schedulerIntervalMs()) * time.Millisecond
		s.module.StartServiceWorker("scheduler sampler", 0, func(_ context.Context) error {
			return RunScheduler(ctx, collector, src, interval)
		})
	}

	log.Infof(
		"rng: started collection session %s (range %d, %s, %s)",
		session, extractor.Range(), digest, extractor.Strategy(),
	)
	return nil
}

func (s *Service) stop() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.pool != nil {
		log.Infof("rng: discarding pool of session %s: %s", s.session, s.pool.Status())
	}

	s.pool = nil
	s.collector = nil
	s.extractor = nil
	s.stream = nil
	s.cancel = nil
	metrics.SetPoolStatsFunc(nil)

	return nil
}

// Collector returns the collector of the running session.
func (s *Service) Collector() (*Collector, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.collector == nil {
		return nil, ErrNotStarted
	}
	return s.collector, nil
}

// Generate derives count values from a snapshot of the pool.
func (s *Service) Generate(count int) ([]int, error) {
	s.lock.RLock()
	pool, extractor := s.pool, s.extractor
	s.lock.RUnlock()

	if pool == nil {
		return nil, ErrNotStarted
	}

	started := time.Now()
	values, err := extractor.Generate(pool.Snapshot(), count)
	if err != nil {
		if IsInsufficientEntropy(err) {
			metrics.ExtractionRefused()
		}
		return nil, err
	}

	metrics.ValuesGenerated(len(values), started)
	return values, nil
}

// Bytes reseeds the byte stream from a snapshot of the pool and returns n random bytes.
func (s *Service) Bytes(n int) ([]byte, error) {
	s.lock.RLock()
	pool, extractor, stream := s.pool, s.extractor, s.stream
	s.lock.RUnlock()

	if pool == nil {
		return nil, ErrNotStarted
	}

	salt := Salt(uint64(n), time.Now().UnixNano(), extractor.Calls())
	if err := stream.Reseed(pool.Snapshot(), salt); err != nil {
		if IsInsufficientEntropy(err) {
			metrics.ExtractionRefused()
		}
		return nil, err
	}
	return stream.Bytes(n)
}

// Status returns the status of the running session.
func (s *Service) Status() (ServiceStatus, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.pool == nil {
		return ServiceStatus{}, ErrNotStarted
	}

	status := ServiceStatus{
		Session:     s.session.String(),
		Pool:        s.pool.Status(),
		MouseActive: s.pool.MouseActive(time.Now().UnixNano()),
		Digest:      s.digest.String(),
		Range:       s.extractor.Range(),
		Strategy:    s.extractor.Strategy().String(),
		Calls:       s.extractor.Calls(),
	}
	for _, src := range entropy.Sources {
		if s.collector.Halted(src) {
			status.Halted = append(status.Halted, src.String())
		}
	}
	return status, nil
}

// WaitUntilReady polls the pool of the running session until it is ready.
func (s *Service) WaitUntilReady(ctx context.Context, poll time.Duration, progress func(entropy.Status)) (entropy.Status, error) {
	s.lock.RLock()
	pool := s.pool
	s.lock.RUnlock()

	if pool == nil {
		return entropy.Status{}, ErrNotStarted
	}
	return WaitUntilReady(ctx, pool, poll, progress)
}
