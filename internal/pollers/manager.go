package pollers

import (
	"context"
	"sync"

	"github.com/rmitchellscott/qdither/internal/logging"
)

// Manager manages multiple pollers
type Manager struct {
	pollers map[string]Poller
	mu      sync.RWMutex
	cancel  context.CancelFunc
	running bool
}

// NewManager creates a new poller manager
func NewManager() *Manager {
	return &Manager{
		pollers: make(map[string]Poller),
	}
}

// Register adds a poller to the manager
func (m *Manager) Register(poller Poller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollers[poller.Name()] = poller
	logging.DebugWithComponent(logging.ComponentPoller, "Registered poller", "poller", poller.Name())
}

// Start starts all registered pollers
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil // Already running
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	for name, poller := range m.pollers {
		if err := poller.Start(ctx); err != nil {
			logging.WarnWithComponent(logging.ComponentPoller, "Failed to start poller", "poller", name, "error", err)
		}
	}

	return nil
}

// Stop stops all pollers gracefully
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil // Already stopped
	}

	var wg sync.WaitGroup
	for name, poller := range m.pollers {
		wg.Add(1)
		go func(name string, p Poller) {
			defer wg.Done()
			if err := p.Stop(); err != nil {
				logging.WarnWithComponent(logging.ComponentPoller, "Error stopping poller", "poller", name, "error", err)
			}
		}(name, poller)
	}

	wg.Wait()
	m.cancel()
	m.running = false

	return nil
}

// GetPoller returns a poller by name
func (m *Manager) GetPoller(name string) (Poller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	poller, exists := m.pollers[name]
	return poller, exists
}
