package gnark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/prova/internal/testing/fake"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

func TestSuite_ComputeDigest(t *testing.T) {
	suite := NewSuite()

	digest, err := suite.ComputeDigest(fake.NewFingerprinter([]byte("content")))
	require.NoError(t, err)
	require.NotEqual(t, proof.Digest{}, digest)

	// Deterministic.
	again, err := suite.ComputeDigest(fake.NewFingerprinter([]byte("content")))
	require.NoError(t, err)
	require.Equal(t, digest, again)

	// Sensitive to the content.
	other, err := suite.ComputeDigest(fake.NewFingerprinter([]byte("other")))
	require.NoError(t, err)
	require.NotEqual(t, digest, other)

	// Fingerprints longer than one chunk are absorbed as well.
	long := make([]byte, 100)
	long[99] = 1

	first, err := suite.ComputeDigest(fake.NewFingerprinter(long))
	require.NoError(t, err)

	long[99] = 2

	second, err := suite.ComputeDigest(fake.NewFingerprinter(long))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = suite.ComputeDigest(fake.NewBadFingerprinter())
	require.EqualError(t, err, "couldn't fingerprint value: fake error")
}

func TestSuite_HashTransaction(t *testing.T) {
	suite := NewSuite()

	update := proof.NewDigestFromBytes([]byte{1})
	tail := proof.Digest{}

	digest, err := suite.HashTransaction(update, tail)
	require.NoError(t, err)
	require.NotEqual(t, proof.Digest{}, digest)

	again, err := suite.HashTransaction(update, tail)
	require.NoError(t, err)
	require.Equal(t, digest, again)

	other, err := suite.HashTransaction(update, proof.NewDigestFromBytes([]byte{2}))
	require.NoError(t, err)
	require.NotEqual(t, digest, other)
}

func TestSuite_RunChecked(t *testing.T) {
	suite := NewSuite()

	err := suite.RunChecked(func() error { return nil })
	require.NoError(t, err)

	err = suite.RunChecked(func() error { return xerrors.New("oops") })
	require.EqualError(t, err, "checked run failed: oops")

	err = suite.RunChecked(func() error { panic("oops") })
	require.EqualError(t, err, "checked run panicked: oops")
}

func TestSuite_AssertEqualDigest(t *testing.T) {
	suite := NewSuite()

	a := proof.NewDigestFromBytes([]byte{1})
	b := proof.NewDigestFromBytes([]byte{2})

	require.NoError(t, suite.AssertEqualDigest(a, a))
	require.Error(t, suite.AssertEqualDigest(a, b))
}

func TestSuite_CompileRules_FailingBody(t *testing.T) {
	suite := NewSuite()

	rules := []proof.Rule{{
		Name:  "broken",
		Arity: 0,
		Body:  func() error { return xerrors.New("oops") },
	}}

	_, err := suite.CompileRules(rules)
	require.EqualError(t, err, "rule 'broken' failed: oops")
}

func TestSuite_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping the trusted setup in short mode")
	}

	suite := NewSuite()

	rules := []proof.Rule{{
		Name:  "bump",
		Arity: 1,
		Body:  func() error { return nil },
	}}

	artifact, err := suite.CompileRules(rules)
	require.NoError(t, err)
	require.Len(t, artifact.Provers, 1)
	require.NotEmpty(t, artifact.Key.Data)
	require.NotEqual(t, proof.Digest{}, artifact.Key.Hash)

	// Build a statement consistent with the in-circuit derivation.
	ud, err := suite.ComputeDigest(fake.NewFingerprinter([]byte("update")))
	require.NoError(t, err)

	td, err := suite.HashTransaction(ud, proof.Digest{})
	require.NoError(t, err)

	st := proof.Statement{
		TransactionDigest:   td,
		AccountUpdateDigest: ud,
	}

	prover := artifact.Provers[0]

	data, err := prover.Prove(context.Background(),
		st, []proof.Field{proof.NewFieldFromUint64(5)})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	require.NoError(t, prover.Verify(st, data))

	// Nil witnesses are filled with zero values.
	data, err = prover.Prove(context.Background(), st, nil)
	require.NoError(t, err)
	require.NoError(t, prover.Verify(st, data))

	// A wrong number of witnesses is rejected.
	_, err = prover.Prove(context.Background(), st,
		[]proof.Field{proof.NewFieldFromUint64(1), proof.NewFieldFromUint64(2)})
	require.EqualError(t, err,
		"couldn't assign witness: method 'bump' expects 1 witness values, got 2")

	// A statement not matching the derivation cannot be proven.
	wrong := st
	wrong.TransactionDigest = proof.NewDigestFromBytes([]byte{1})

	_, err = prover.Prove(context.Background(), wrong, nil)
	require.Error(t, err)

	// The proof does not verify against another statement.
	err = prover.Verify(wrong, data)
	require.Error(t, err)

	err = prover.Verify(st, []byte("garbage"))
	require.Error(t, err)
}
