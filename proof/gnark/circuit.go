// This file contains the statement circuit and the prover handle.
//
// The circuit binds the two public digests of a statement together: it
// recomputes the transaction digest from the account update digest with the
// in-circuit MiMC and asserts the equality. The private witnesses are the
// field elements of the method arguments.
//

package gnark

import (
	"bytes"
	"context"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// statementCircuit is the Groth16 circuit of one provable method.
type statementCircuit struct {
	TransactionDigest   frontend.Variable `gnark:",public"`
	AccountUpdateDigest frontend.Variable `gnark:",public"`

	Witnesses []frontend.Variable
}

// Define implements frontend.Circuit. It asserts that the transaction digest
// is the MiMC hash of the account update digest and the zero tail, and it
// binds every witness into the constraint system.
func (c *statementCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return xerrors.Errorf("couldn't create mimc: %v", err)
	}

	h.Write(c.AccountUpdateDigest, 0)

	api.AssertIsEqual(h.Sum(), c.TransactionDigest)

	// Make sure every witness takes part in the constraint system so that the
	// prover cannot ignore an argument.
	for _, w := range c.Witnesses {
		api.Mul(w, w)
	}

	return nil
}

// Prover is the handle of a compiled method.
//
// - implements proof.Prover
type prover struct {
	name  string
	arity int
	cs    constraint.ConstraintSystem
	pk    groth16.ProvingKey
	vk    groth16.VerifyingKey
}

// Prove implements proof.Prover. It assigns the statement and the witnesses
// to the circuit and generates a Groth16 proof. The generation runs aside so
// that an abandoned context does not interrupt it, in which case it completes
// or fails independently.
func (p *prover) Prove(ctx context.Context, st proof.Statement, witnesses []proof.Field) ([]byte, error) {
	assignment, err := p.assign(st, witnesses)
	if err != nil {
		return nil, xerrors.Errorf("couldn't assign witness: %v", err)
	}

	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, xerrors.Errorf("couldn't create witness: %v", err)
	}

	type result struct {
		data []byte
		err  error
	}

	done := make(chan result, 1)

	go func() {
		pr, err := groth16.Prove(p.cs, p.pk, full)
		if err != nil {
			done <- result{err: xerrors.Errorf("groth16 prove failed: %v", err)}
			return
		}

		buffer := new(bytes.Buffer)

		_, err = pr.WriteTo(buffer)
		if err != nil {
			done <- result{err: xerrors.Errorf("couldn't serialize proof: %v", err)}
			return
		}

		done <- result{data: buffer.Bytes()}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, xerrors.Errorf("context: %v", ctx.Err())
	}
}

// Verify implements proof.Prover. It checks the proof against the public
// inputs of the statement.
func (p *prover) Verify(st proof.Statement, data []byte) error {
	pr := groth16.NewProof(ecc.BN254)

	_, err := pr.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return xerrors.Errorf("couldn't deserialize proof: %v", err)
	}

	assignment, err := p.assign(st, nil)
	if err != nil {
		return xerrors.Errorf("couldn't assign witness: %v", err)
	}

	public, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return xerrors.Errorf("couldn't create public witness: %v", err)
	}

	err = groth16.Verify(pr, p.vk, public)
	if err != nil {
		return xerrors.Errorf("groth16 verify failed: %v", err)
	}

	return nil
}

// Assign builds the circuit assignment for the statement. A nil witness list
// is filled with canonical zero values, otherwise the number of supplied
// values must match the arity of the method.
func (p *prover) assign(st proof.Statement, witnesses []proof.Field) (*statementCircuit, error) {
	if witnesses == nil {
		witnesses = make([]proof.Field, p.arity)
	}

	if len(witnesses) != p.arity {
		return nil, xerrors.Errorf("method '%s' expects %d witness values, got %d",
			p.name, p.arity, len(witnesses))
	}

	assignment := &statementCircuit{
		TransactionDigest:   new(big.Int).SetBytes(st.TransactionDigest[:]),
		AccountUpdateDigest: new(big.Int).SetBytes(st.AccountUpdateDigest[:]),
		Witnesses:           make([]frontend.Variable, len(witnesses)),
	}

	for i, w := range witnesses {
		assignment.Witnesses[i] = w.BigInt()
	}

	return assignment, nil
}
