// Package shutdown coordinates graceful shutdown across components.
//
// Components register handlers with a phase number. Lower phases shut
// down first; handlers in the same phase run concurrently. The service
// uses phases to stop the HTTP server before the task executor, and the
// executor before telemetry export.
package shutdown

import (
	"context"
	"errors"
	"time"

	"github.com/vinayprograms/slackagent/logging"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the timeout is reached.
	OnShutdown(ctx context.Context) error
}

// Func adapts a plain function to a Handler.
type Func func(ctx context.Context) error

// OnShutdown implements Handler.
func (f Func) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// HandlerResult records the outcome of one handler.
type HandlerResult struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Config configures the shutdown coordinator.
type Config struct {
	// DefaultTimeout is used when ShutdownWithTimeout is called with zero.
	// Default: 30 seconds.
	DefaultTimeout time.Duration

	// DefaultPhase is assigned to handlers registered without a phase.
	// Default: 100.
	DefaultPhase int

	// Logger receives per-handler progress. Optional.
	Logger *logging.Logger
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 30 * time.Second,
		DefaultPhase:   100,
	}
}

// registration holds a registered handler with its metadata.
type registration struct {
	name    string
	handler Handler
	phase   int
}
