// Package statement implements the binder between account updates and the
// statements proofs commit to.
//
// The statement of an update is the pair of the update digest and the
// transaction digest derived from it and the transaction tail. Outside the
// prover the binder is a plain recomputation and comparison. Inside the
// prover the same relation is enforced by the circuit constraints, so a proof
// can only ever attest the exact update content it was generated for.
//
package statement

import (
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// ErrMismatch is returned when a statement does not commit to the content of
// the update it is checked against.
var ErrMismatch = xerrors.New("statement mismatch")

// Compute derives the statement of the update under the transaction tail. The
// derivation is deterministic: the same update content and tail always
// produce the same statement.
func Compute(suite proof.Suite, u *update.Update, tail proof.Digest) (proof.Statement, error) {
	digest, err := suite.ComputeDigest(u)
	if err != nil {
		return proof.Statement{}, xerrors.Errorf("couldn't compute update digest: %v", err)
	}

	tx, err := suite.HashTransaction(digest, tail)
	if err != nil {
		return proof.Statement{}, xerrors.Errorf("couldn't hash transaction: %v", err)
	}

	return proof.Statement{
		TransactionDigest:   tx,
		AccountUpdateDigest: digest,
	}, nil
}

// Verify recomputes the statement of the update and asserts the equality with
// the provided one. Any divergence, including a single mutated byte of the
// update content, is reported as ErrMismatch.
func Verify(suite proof.Suite, st proof.Statement, u *update.Update, tail proof.Digest) error {
	expected, err := Compute(suite, u, tail)
	if err != nil {
		return xerrors.Errorf("couldn't compute statement: %v", err)
	}

	err = suite.AssertEqualDigest(st.AccountUpdateDigest, expected.AccountUpdateDigest)
	if err != nil {
		return xerrors.Errorf("update digest: %w", ErrMismatch)
	}

	err = suite.AssertEqualDigest(st.TransactionDigest, expected.TransactionDigest)
	if err != nil {
		return xerrors.Errorf("transaction digest: %w", ErrMismatch)
	}

	return nil
}
