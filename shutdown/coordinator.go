package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Coordinator runs registered handlers in phase order on shutdown.
type Coordinator struct {
	config Config

	mu           sync.Mutex
	handlers     []registration
	shutdownOnce sync.Once
	shutdownErr  error
	done         chan struct{}
	signalChan   chan os.Signal
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(config Config) *Coordinator {
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	if config.DefaultPhase == 0 {
		config.DefaultPhase = DefaultConfig().DefaultPhase
	}

	return &Coordinator{
		config:     config,
		done:       make(chan struct{}),
		signalChan: make(chan os.Signal, 1),
	}
}

// Register adds a handler at the default phase.
func (c *Coordinator) Register(name string, handler Handler) {
	c.RegisterWithPhase(name, handler, c.config.DefaultPhase)
}

// RegisterWithPhase adds a handler at a specific phase. Lower phases
// shut down first; handlers in the same phase run concurrently.
func (c *Coordinator) RegisterWithPhase(name string, handler Handler, phase int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = append(c.handlers, registration{
		name:    name,
		handler: handler,
		phase:   phase,
	})
}

// RegisterFunc registers a plain function at the default phase.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, Func(fn))
}

// RegisterFuncWithPhase registers a plain function at a specific phase.
func (c *Coordinator) RegisterFuncWithPhase(name string, fn func(ctx context.Context) error, phase int) {
	c.RegisterWithPhase(name, Func(fn), phase)
}

// Shutdown runs all handlers in phase order. Handler failures do not
// stop later phases. Returns ErrAlreadyShutdown on repeated calls.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	ran := false
	c.shutdownOnce.Do(func() {
		ran = true
		c.shutdownErr = c.doShutdown(ctx)
		close(c.done)
	})
	if !ran {
		select {
		case <-c.done:
			return c.shutdownErr
		default:
			return ErrAlreadyShutdown
		}
	}
	return c.shutdownErr
}

// ShutdownWithTimeout runs Shutdown bounded by the given timeout.
// Zero uses the configured default.
func (c *Coordinator) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout == 0 {
		timeout = c.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals starts shutdown when SIGTERM or SIGINT arrives.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signalChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-c.signalChan
		_ = c.ShutdownWithTimeout(c.config.DefaultTimeout)
	}()
}

// Trigger manually injects a shutdown signal.
func (c *Coordinator) Trigger() {
	select {
	case c.signalChan <- syscall.SIGTERM:
	default:
	}
}

// Done returns a channel closed when shutdown is complete.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the shutdown error. Only valid after Done() is closed.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return nil
	}
}

func (c *Coordinator) doShutdown(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].phase < handlers[j].phase
	})

	var overallErr error

	for start := 0; start < len(handlers); {
		end := start
		for end < len(handlers) && handlers[end].phase == handlers[start].phase {
			end++
		}

		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}

		for _, hr := range c.runPhase(ctx, handlers[start:end]) {
			if hr.Err != nil {
				overallErr = ErrHandlerFailed
			}
			if c.config.Logger != nil {
				fields := map[string]interface{}{
					"handler":  hr.Name,
					"phase":    hr.Phase,
					"duration": hr.Duration.String(),
				}
				if hr.Err != nil {
					fields["error"] = hr.Err.Error()
					c.config.Logger.Error("shutdown handler failed", fields)
				} else {
					c.config.Logger.Info("shutdown handler finished", fields)
				}
			}
		}

		start = end
	}

	return overallErr
}

// runPhase runs one phase's handlers concurrently.
func (c *Coordinator) runPhase(ctx context.Context, handlers []registration) []HandlerResult {
	results := make([]HandlerResult, len(handlers))
	var wg sync.WaitGroup

	for i, reg := range handlers {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()

			start := time.Now()
			err := r.handler.OnShutdown(ctx)

			results[idx] = HandlerResult{
				Name:     r.name,
				Phase:    r.phase,
				Duration: time.Since(start),
				Err:      err,
			}
		}(i, reg)
	}

	wg.Wait()
	return results
}
