package pollers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rmitchellscott/qdither/internal/logging"
)

// BasePoller provides common functionality for all pollers
type BasePoller struct {
	config   PollerConfig
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.RWMutex
	pollFunc func(ctx context.Context) error
}

// NewBasePoller creates a new base poller instance
func NewBasePoller(config PollerConfig, pollFunc func(ctx context.Context) error) *BasePoller {
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &BasePoller{
		config:   config,
		pollFunc: pollFunc,
	}
}

// Name returns the name of the poller
func (p *BasePoller) Name() string {
	return p.config.Name
}

// Start begins the polling loop
func (p *BasePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil // Already running
	}

	if !p.config.Enabled {
		logging.DebugWithComponent(logging.ComponentPoller, "Poller disabled, skipping start", "poller", p.config.Name)
		return nil
	}

	logging.DebugWithComponent(logging.ComponentPoller, "Starting poller",
		"poller", p.config.Name, "interval", p.config.Interval)

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.running = true

	go p.pollLoop(p.ctx, p.done)

	return nil
}

// Stop gracefully stops the poller and waits for the loop to exit
func (p *BasePoller) Stop() error {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return nil // Never started
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done

	logging.DebugWithComponent(logging.ComponentPoller, "Poller stopped", "poller", p.config.Name)
	return nil
}

// Wait blocks until the loop has exited, either through Stop, context
// cancellation or the poll function returning ErrStop
func (p *BasePoller) Wait() {
	p.mu.RLock()
	done := p.done
	p.mu.RUnlock()

	if done != nil {
		<-done
	}
}

// IsRunning returns true if the poller is currently running
func (p *BasePoller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// GetInterval returns the polling interval
func (p *BasePoller) GetInterval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Interval
}

// pollLoop runs the main polling loop
func (p *BasePoller) pollLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(done)
	}()

	// Run once immediately
	if p.executeWithRetry(ctx) {
		return
	}

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.executeWithRetry(ctx) {
				return
			}
		}
	}
}

// executeWithRetry executes the poll function with retry logic.
// It reports true when the loop should end.
func (p *BasePoller) executeWithRetry(ctx context.Context) bool {
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return true
		}

		pollCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.config.Timeout > 0 {
			pollCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		}
		err := p.pollFunc(pollCtx)
		cancel()

		if err == nil {
			return false
		}
		if errors.Is(err, ErrStop) {
			return true
		}

		logging.WarnWithComponent(logging.ComponentPoller, "Poll attempt failed",
			"poller", p.config.Name, "attempt", attempt+1, "max_retries", p.config.MaxRetries, "error", err)

		if attempt < p.config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return true
			case <-time.After(p.config.RetryDelay):
			}
		}
	}

	return false
}
