package transport

import (
	"context"
	"sync"
	"time"
)

// ShutdownConfig controls how a draining server winds down.
type ShutdownConfig struct {
	// Timeout bounds the wait for in-flight requests once draining starts.
	// Zero means 30 seconds.
	Timeout time.Duration

	// DrainDelay postpones the start of draining, giving load balancers
	// time to pull the instance before it starts refusing work.
	DrainDelay time.Duration

	// OnShutdownStart fires as soon as Shutdown is called.
	OnShutdownStart func()

	// OnDrainStart fires when new requests begin to be refused.
	OnDrainStart func()

	// OnShutdownComplete fires last, with nil or the drain error.
	OnShutdownComplete func(err error)
}

// DefaultShutdownConfig returns the defaults used when no config is given.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{Timeout: 30 * time.Second}
}

// ShutdownManager coordinates graceful shutdown. Transports register every
// request through TrackRequest and CompleteRequest; once Shutdown flips the
// manager into draining, TrackRequest refuses new work and Shutdown blocks
// until the last tracked request completes or the timeout expires.
type ShutdownManager struct {
	config ShutdownConfig

	mu       sync.Mutex
	inFlight int64
	draining bool

	idle     chan struct{} // closed when draining with nothing in flight
	idleOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// NewShutdownManager returns a manager in the accepting state.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &ShutdownManager{
		config: config,
		idle:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// TrackRequest registers one request. It reports false once draining has
// begun, in which case the caller must reject the request and must not call
// CompleteRequest for it.
func (m *ShutdownManager) TrackRequest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draining {
		return false
	}
	m.inFlight++
	return true
}

// CompleteRequest retires one tracked request. The final completion during
// a drain releases Shutdown immediately.
func (m *ShutdownManager) CompleteRequest() {
	m.mu.Lock()
	m.inFlight--
	release := m.draining && m.inFlight <= 0
	m.mu.Unlock()
	if release {
		m.signalIdle()
	}
}

// IsDraining reports whether new requests are being refused.
func (m *ShutdownManager) IsDraining() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draining
}

// InFlightRequests returns the number of tracked requests still running.
func (m *ShutdownManager) InFlightRequests() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// Shutdown drains the manager: wait out DrainDelay, refuse new requests,
// then block until in-flight work finishes. It returns the context error if
// the timeout or ctx expires with requests still running.
func (m *ShutdownManager) Shutdown(ctx context.Context) error {
	if m.config.OnShutdownStart != nil {
		m.config.OnShutdownStart()
	}

	if m.config.DrainDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.DrainDelay):
		}
	}

	m.beginDrain()
	if m.config.OnDrainStart != nil {
		m.config.OnDrainStart()
	}

	timer := time.NewTimer(m.config.Timeout)
	defer timer.Stop()

	var err error
	select {
	case <-m.idle:
	case <-ctx.Done():
		if m.InFlightRequests() > 0 {
			err = ctx.Err()
		}
	case <-timer.C:
		if m.InFlightRequests() > 0 {
			err = context.DeadlineExceeded
		}
	}

	m.doneOnce.Do(func() { close(m.done) })

	if m.config.OnShutdownComplete != nil {
		m.config.OnShutdownComplete(err)
	}
	return err
}

// Done is closed once Shutdown has finished, successfully or not.
func (m *ShutdownManager) Done() <-chan struct{} {
	return m.done
}

func (m *ShutdownManager) beginDrain() {
	m.mu.Lock()
	m.draining = true
	idle := m.inFlight <= 0
	m.mu.Unlock()
	if idle {
		m.signalIdle()
	}
}

func (m *ShutdownManager) signalIdle() {
	m.idleOnce.Do(func() { close(m.idle) })
}

// WithShutdownTimeout bounds how long Close waits for in-flight requests
// before shutting the HTTP server down anyway.
func WithShutdownTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.shutdownTimeout = d
	}
}

// WithShutdownDrainDelay delays the refuse-new-work phase of an HTTP
// shutdown. See ShutdownConfig.DrainDelay.
func WithShutdownDrainDelay(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.drainDelay = d
	}
}
