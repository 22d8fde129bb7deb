// Package exec implements the execution context of provable method calls.
//
// A context is activated for the duration of a function and deactivated when
// the function returns, even on error or panic. Activations nest so that a
// method body can itself dispatch other methods. The dispatcher and the
// pipelines read the innermost activation to decide how a call behaves:
// directly, under the compiler, or folded into a transaction-building
// session.
//
// A stack is not safe for concurrent activations. Each goroutine building
// transactions or proving methods owns its stack.
//
package exec

import (
	"context"

	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// ErrNoActiveContext is returned when an operation requires an activation and
// none is in effect.
var ErrNoActiveContext = xerrors.New("no active execution context")

// Config is the content of one activation.
type Config struct {
	// Update is the account update the running method folds its effects
	// into. It can be nil when a session provides per-instance updates.
	Update *update.Update

	// Session is the transaction-building session of the activation, or nil
	// outside of one.
	Session *update.Session

	// Compiling is set while the methods run as rule bodies under the
	// compilation pipeline.
	Compiling bool

	// Proving is set while the methods run under the proving pipeline.
	Proving bool

	// Witnesses is the concrete private assignment of the proving pass, or
	// nil when canonical zero values are used.
	Witnesses []proof.Field
}

// Stack holds the nested activations of one goroutine.
type Stack struct {
	frames []*Config
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Activate pushes the config, runs the body and pops the config once the body
// has returned. The config is popped even when the body fails or panics.
func (s *Stack) Activate(cfg *Config, body func() error) error {
	s.frames = append(s.frames, cfg)

	defer func() {
		s.frames = s.frames[:len(s.frames)-1]
	}()

	return body()
}

// ActivateContext is the flavour of Activate for bodies that block, like the
// proving pass. The context is passed through to the body.
func (s *Stack) ActivateContext(ctx context.Context, cfg *Config,
	body func(context.Context) error) error {

	return s.Activate(cfg, func() error {
		return body(ctx)
	})
}

// Current returns the innermost activation, or ErrNoActiveContext when the
// stack is empty.
func (s *Stack) Current() (*Config, error) {
	if len(s.frames) == 0 {
		return nil, ErrNoActiveContext
	}

	return s.frames[len(s.frames)-1], nil
}

// Depth returns the number of nested activations.
func (s *Stack) Depth() int {
	return len(s.frames)
}
