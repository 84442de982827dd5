// Package shutdown provides graceful teardown for the one-shot runner
// process: a signal-canceled context plus ordered cleanup handlers.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"genrun/internal/pkg/logger"
)

// Handler is a function that performs cleanup during shutdown.
type Handler struct {
	Name    string
	Cleanup func(ctx context.Context) error
}

// Manager collects cleanup handlers and runs them once, last-registered
// first, when the run ends or a termination signal arrives.
type Manager struct {
	log      *logger.Logger
	timeout  time.Duration
	handlers []Handler
	mu       sync.Mutex
	once     sync.Once
}

// NewManager creates a new shutdown manager.
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Manager{
		log:     log,
		timeout: timeout,
	}
}

// Register adds a cleanup handler.
func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Cleanup: cleanup})
	m.log.Debug("registered shutdown handler", "name", name)
}

// RegisterSimple adds a simple cleanup handler without context.
func (m *Manager) RegisterSimple(name string, cleanup func()) {
	m.Register(name, func(ctx context.Context) error {
		cleanup()
		return nil
	})
}

// Context returns a child of parent that is canceled when SIGINT or
// SIGTERM arrives. The in-flight pipeline stage observes the cancellation
// and the failure funnel emits the terminal record.
func (m *Manager) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case s := <-sigCh:
			m.log.Info("termination signal received", "signal", s.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// Cleanup runs all registered handlers in reverse registration order.
// Safe to call multiple times; only the first call runs the handlers.
func (m *Manager) Cleanup() {
	m.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		m.mu.Lock()
		handlers := make([]Handler, len(m.handlers))
		copy(handlers, m.handlers)
		m.mu.Unlock()

		for i := len(handlers) - 1; i >= 0; i-- {
			h := handlers[i]
			if err := h.Cleanup(ctx); err != nil {
				m.log.Warn("cleanup handler failed", "name", h.Name, "error", err.Error())
				continue
			}
			m.log.Debug("cleanup handler finished", "name", h.Name)
		}
	})
}
