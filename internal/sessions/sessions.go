// Package sessions holds live validation sessions for the HTTP and MCP
// servers and expires idle ones.
package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/reqguard/internal/workflow"
)

// Factory builds a fresh Controller for a new session. opts are applied
// after the factory's own options.
type Factory func(opts ...workflow.Option) *workflow.Controller

// Gauge receives the number of live sessions. *metrics.Metrics implements it.
type Gauge interface {
	SetLive(n int)
}

type entry struct {
	c       *workflow.Controller
	touched time.Time
}

// Manager is a concurrency-safe, TTL-bounded map of session ID to
// Controller.
type Manager struct {
	mu      sync.RWMutex
	items   map[string]*entry
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	gauge   Gauge
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithGauge reports the live session count to g.
func WithGauge(g Gauge) Option {
	return func(m *Manager) { m.gauge = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a Manager. Sessions idle for longer than ttl are removed by
// Sweep.
func New(factory Factory, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		items:   make(map[string]*entry),
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create builds and stores a new session.
func (m *Manager) Create(opts ...workflow.Option) *workflow.Controller {
	c := m.factory(opts...)
	m.mu.Lock()
	m.items[c.ID()] = &entry{c: c, touched: m.now()}
	n := len(m.items)
	m.mu.Unlock()
	m.report(n)
	return c
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*workflow.Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, false
	}
	e.touched = m.now()
	return e.c, true
}

// Delete abandons and removes the session. It reports whether the session
// existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	e, ok := m.items[id]
	delete(m.items, id)
	n := len(m.items)
	m.mu.Unlock()
	if !ok {
		return false
	}
	// A finished session cannot be abandoned; removing it is enough.
	_ = e.c.Abandon()
	m.report(n)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	var expired []*entry

	m.mu.Lock()
	for id, e := range m.items {
		if e.touched.Before(cutoff) {
			expired = append(expired, e)
			delete(m.items, id)
		}
	}
	n := len(m.items)
	m.mu.Unlock()

	for _, e := range expired {
		_ = e.c.Abandon()
		m.logger.Info("session expired", "session_id", e.c.ID())
	}
	if len(expired) > 0 {
		m.report(n)
	}
	return len(expired)
}

// Run sweeps every half TTL until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *Manager) report(n int) {
	if m.gauge != nil {
		m.gauge.SetLive(n)
	}
}
