// This file contains the compilation pipeline of a contract class.
//

package contract

import (
	"go.dedis.ch/prova"
	"go.dedis.ch/prova/core/exec"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/crypto/schnorr"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// Compile turns every declared method into a rule, runs the rule bodies once
// under a single compile-time activation and hands them to the suite. The
// artifact is stored on the class and returned. A nil address is replaced
// with a fresh placeholder key, as only the circuit shapes matter at compile
// time.
//
// Compilation is deterministic with respect to the circuit shapes: compiling
// the same class twice yields provers accepting the same witnesses.
func (c *Class) Compile(suite proof.Suite, stack *exec.Stack,
	address crypto.PublicKey) (*proof.Artifact, error) {

	if address == nil {
		signer := schnorr.NewSigner()
		address = signer.GetPublicKey()
	}

	scratch := NewInstance(c, address)

	rules := make([]proof.Rule, len(c.methods))

	for i, m := range c.methods {
		m := m

		args, err := m.ZeroArguments()
		if err != nil {
			return nil, xerrors.Errorf("couldn't materialize arguments of '%s': %v",
				m.name, err)
		}

		rules[i] = proof.Rule{
			Name:  m.name,
			Arity: m.arity,
			Body: func() error {
				return scratch.dispatch(stack, m.name, args, true)
			},
		}
	}

	cfg := &exec.Config{
		Update:    update.New(address),
		Compiling: true,
	}

	var artifact *proof.Artifact

	err := stack.Activate(cfg, func() error {
		var err error

		artifact, err = suite.CompileRules(rules)
		if err != nil {
			return xerrors.Errorf("couldn't compile rules: %v", err)
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("compilation of '%s' failed: %v", c.name, err)
	}

	c.artifact = artifact

	prova.Logger.Info().
		Str("class", c.name).
		Int("methods", len(c.methods)).
		Str("key", artifact.Key.Hash.String()).
		Msg("class compiled")

	return artifact, nil
}
