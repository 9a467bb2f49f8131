// Package health implements Kubernetes-style liveness and readiness probes.
//
// Probes run on a shared ticker in background goroutines and use consecutive
// failure/success thresholds so a single slow database round-trip does not
// flap the service out of rotation: a probe must fail failAfter times in a
// row before it reports down, and pass passAfter times before it reports up
// again.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	failAfter = 3
	passAfter = 1
)

// probe wraps a CheckFunc with threshold state.
//
// observe is only ever called from the probe's own goroutine, so the fail and
// pass counters need no locking. The up flag and the last error are read by
// HTTP handlers from arbitrary goroutines and use atomics.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	up      atomic.Bool
	lastErr atomic.Pointer[error]

	fails  int
	passes int
}

func (p *probe) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		p.fails++
		if p.fails >= failAfter {
			p.up.Store(false)
		}
		return
	}
	p.fails = 0
	p.passes++
	if p.passes >= passAfter {
		p.up.Store(true)
	}
}

func (p *probe) failure() string {
	if p.up.Load() {
		return ""
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "probe is down"
}

// Service tracks liveness and readiness probes and serves probe endpoints.
type Service struct {
	ready atomic.Bool

	// mu guards the probe slices and cancel. Registration happens before
	// Start; handlers only snapshot the slices under RLock.
	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a probe service. It starts not-ready; call SetReady(true) once
// initialization is complete.
func New() *Service {
	return &Service{}
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, fn: fn}
	// Healthy until proven otherwise, so a freshly started service is not
	// pulled out of rotation before the first probe run completes.
	p.up.Store(true)
	return p
}

// AddLivenessCheck registers a probe for /livez. Liveness failures mean the
// process itself is broken (goroutine leak, runaway GC) and should be
// restarted.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newProbe(name, timeout, fn))
}

// AddReadinessCheck registers a probe for /readyz. Readiness failures mean a
// dependency (database, cache) is unavailable and traffic should be routed
// elsewhere until it recovers.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newProbe(name, timeout, fn))
}

// Start launches one goroutine per registered probe, each observing at the
// given interval until the context is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probe, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.observe(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.observe(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set false at the start of
// graceful shutdown so load balancers drain before the listener closes.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is currently up.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}

	s.mu.RLock()
	probes := s.readiness
	s.mu.RUnlock()

	for _, p := range probes {
		if !p.up.Load() {
			return false
		}
	}
	return true
}

// LiveEndpoint serves /livez: 200 while all liveness probes are up, 503 with
// per-probe failure details otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	probes := make([]*probe, len(s.liveness))
	copy(probes, s.liveness)
	s.mu.RUnlock()

	writeProbeStatus(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 when the manual gate is open and all
// readiness probes are up, 503 with details otherwise.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	ready := s.ready.Load()

	s.mu.RLock()
	probes := make([]*probe, len(s.readiness))
	copy(probes, s.readiness)
	s.mu.RUnlock()

	down := failures(probes)
	if !ready {
		down = append(down, kv{"_gate", "service is not ready"})
	}
	writeProbeStatus(w, down)
}

type kv struct {
	name, msg string
}

func failures(probes []*probe) []kv {
	var down []kv
	for _, p := range probes {
		if msg := p.failure(); msg != "" {
			down = append(down, kv{p.name, msg})
		}
	}
	return down
}

func writeProbeStatus(w http.ResponseWriter, down []kv) {
	w.Header().Set("Content-Type", "application/json")

	status := http.StatusOK
	if len(down) > 0 {
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if len(down) == 0 {
		e.Str("ok")
	} else {
		e.Str("unhealthy")
	}
	if len(down) > 0 {
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range down {
			e.FieldStart(f.name)
			e.Str(f.msg)
		}
		e.ObjEnd()
	}
	e.ObjEnd()
	_, _ = w.Write(e.Bytes())
}
