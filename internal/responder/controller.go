package responder

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/wemo-ssdp/internal/logging"
)

// State is the lifecycle state of a Controller
type State int

const (
	// Stopped means no receive loop is active
	Stopped State = iota
	// Running means a receive loop is active or shutting down
	Running
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Runner is a long-running loop stopped by canceling its context.
// *Listener implements it.
type Runner interface {
	Run(ctx context.Context) error
}

// Controller runs at most one Runner at a time.
type Controller struct {
	mu     sync.Mutex
	runner Runner
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewController creates a stopped controller for runner
func NewController(runner Runner) *Controller {
	return &Controller{runner: runner}
}

// Start launches the runner in a new goroutine. It returns
// ErrAlreadyRunning, without side effects, while a previous run has not
// exited, including one that has been asked to stop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		return ErrAlreadyRunning
	}
	if c.runner == nil {
		return ErrNoRunner
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.state = Running
	c.cancel = cancel
	c.done = done
	c.err = nil

	go c.run(runCtx, cancel, c.runner, done)
	return nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, runner Runner, done chan struct{}) {
	err := runner.Run(ctx)
	cancel()

	c.mu.Lock()
	c.err = err
	c.state = Stopped
	c.cancel = nil
	c.mu.Unlock()

	if err != nil {
		logging.Error("Responder exited with error", zap.Error(err))
	}
	close(done)
}

// Stop asks the running loop to exit and returns without waiting for it.
// It is a no-op when stopped. Use Done to wait for the loop to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == Stopped || c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.cancel = nil
	c.mu.Unlock()

	runtime.Gosched()
}

// SetRunner replaces the runner used by the next Start.
func (c *Controller) SetRunner(runner Runner) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return ErrAlreadyRunning
	}
	c.runner = runner
	return nil
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done returns a channel closed when the current run exits. Before the
// first Start it returns a closed channel.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

// Err returns the error of the last finished run
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

var (
	defaultOnce       sync.Once
	defaultController *Controller
)

// Default returns the process-wide controller. It has no runner until
// SetRunner is called.
func Default() *Controller {
	defaultOnce.Do(func() {
		defaultController = NewController(nil)
	})
	return defaultController
}

// Start starts the process-wide controller
func Start(ctx context.Context) error {
	return Default().Start(ctx)
}

// Stop asks the process-wide controller to stop without waiting
func Stop() {
	Default().Stop()
}
