// This file contains the proving pipeline of a contract instance.
//

package contract

import (
	"context"

	"go.dedis.ch/prova/core/exec"
	"go.dedis.ch/prova/core/statement"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// Result is the outcome of a run of the proving pipeline. The proof is empty
// when only the checked run was performed.
type Result struct {
	// Proof is the serialized proof bound to the statement.
	Proof []byte

	// Statement is the digest pair the proof commits to.
	Statement proof.Statement

	// Update is the account update produced by the method body.
	Update *update.Update
}

// Prove runs the method in two passes. The first pass executes the body under
// a checked proving activation and folds its effects into a fresh update, out
// of which the statement is derived. The second pass hands the statement and
// the flattened witness values to the prover of the compiled method.
//
// A nil argument list stands for the canonical zero values. Supplied
// arguments must line up with the declaration, otherwise the pipeline fails
// with ErrWitnessArityMismatch before any proving work is spent.
func (ins *Instance) Prove(ctx context.Context, suite proof.Suite,
	stack *exec.Stack, name string, args []proof.Fieldable) (*Result, error) {

	m, index, err := ins.prepare(name)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args, err = m.ZeroArguments()
		if err != nil {
			return nil, xerrors.Errorf("couldn't materialize arguments: %v", err)
		}
	}

	witnesses, err := flattenArguments(m, args)
	if err != nil {
		return nil, err
	}

	res, err := ins.runChecked(suite, stack, m, args)
	if err != nil {
		return nil, err
	}

	prover := ins.class.artifact.Provers[index]

	cfg := &exec.Config{
		Update:    res.Update,
		Proving:   true,
		Witnesses: witnesses,
	}

	err = stack.ActivateContext(ctx, cfg, func(ctx context.Context) error {
		data, err := prover.Prove(ctx, res.Statement, witnesses)
		if err != nil {
			return xerrors.Errorf("prover failed: %v", err)
		}

		res.Proof = data

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("proving pass of '%s': %v", name, err)
	}

	return res, nil
}

// RunAndCheck runs only the first pass of the pipeline: the body executes
// under a checked activation and the statement is derived, but no proof is
// generated. It does not require the class to be compiled.
func (ins *Instance) RunAndCheck(suite proof.Suite, stack *exec.Stack,
	name string, args []proof.Fieldable) (*Result, error) {

	m, _, found := ins.class.resolve(name)
	if !found {
		return nil, xerrors.Errorf("class '%s' has no method '%s': %w",
			ins.class.name, name, ErrMethodNotFound)
	}

	if args == nil {
		var err error

		args, err = m.ZeroArguments()
		if err != nil {
			return nil, xerrors.Errorf("couldn't materialize arguments: %v", err)
		}
	}

	_, err := flattenArguments(m, args)
	if err != nil {
		return nil, err
	}

	return ins.runChecked(suite, stack, m, args)
}

func (ins *Instance) prepare(name string) (*Method, int, error) {
	if ins.class.artifact == nil {
		return nil, 0, xerrors.Errorf("class '%s': %w", ins.class.name, ErrNotCompiled)
	}

	m, index, found := ins.class.resolve(name)
	if !found {
		return nil, 0, xerrors.Errorf("class '%s' has no method '%s': %w",
			ins.class.name, name, ErrMethodNotFound)
	}

	return m, index, nil
}

func (ins *Instance) runChecked(suite proof.Suite, stack *exec.Stack,
	m *Method, args []proof.Fieldable) (*Result, error) {

	pending := update.New(ins.address)

	cfg := &exec.Config{
		Update:  pending,
		Proving: true,
	}

	err := stack.Activate(cfg, func() error {
		return suite.RunChecked(func() error {
			return ins.dispatch(stack, m.name, args, true)
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("checked run of '%s': %v", m.name, err)
	}

	st, err := statement.Compute(suite, pending, proof.Digest{})
	if err != nil {
		return nil, xerrors.Errorf("couldn't compute statement: %v", err)
	}

	return &Result{
		Statement: st,
		Update:    pending,
	}, nil
}

// flattenArguments lines the supplied values up with the declaration and
// returns their field elements in order. Extra or missing values, at the
// argument level or in total field width, fail with ErrWitnessArityMismatch.
func flattenArguments(m *Method, args []proof.Fieldable) ([]proof.Field, error) {
	err := validateArguments(m, args)
	if err != nil {
		return nil, err
	}

	fields := make([]proof.Field, 0, m.arity)

	for _, arg := range args {
		fields = append(fields, arg.ToFields()...)
	}

	if len(fields) != m.arity {
		return nil, xerrors.Errorf(
			"method '%s' consumes %d field elements, got %d: %w",
			m.name, m.arity, len(fields), ErrWitnessArityMismatch)
	}

	return fields, nil
}
