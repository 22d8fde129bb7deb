// This file contains a fake implementation of the proof system primitives.
// The digests are plain SHA-256 hashes and the proofs are the concatenated
// digests of the statement, so that a proof only verifies against the exact
// statement it was produced for, like with the real backend but without the
// cost.
//

package fake

import (
	"bytes"
	"context"
	"crypto/sha256"

	"go.dedis.ch/prova/proof"
	"go.dedis.ch/prova/serde"
	"golang.org/x/xerrors"
)

// Prover is a fake implementation of proof.Prover.
type Prover struct {
	arity     int
	err       error
	verifyErr error
}

// NewBadProver returns a prover that returns an error when appropriate.
func NewBadProver() *Prover {
	return &Prover{err: fakeErr}
}

// Prove implements proof.Prover.
func (p *Prover) Prove(ctx context.Context, st proof.Statement,
	witnesses []proof.Field) ([]byte, error) {

	if p.err != nil {
		return nil, p.err
	}

	if witnesses != nil && len(witnesses) != p.arity {
		return nil, xerrors.Errorf("expected %d witnesses, got %d",
			p.arity, len(witnesses))
	}

	return proofData(st), nil
}

// Verify implements proof.Prover.
func (p *Prover) Verify(st proof.Statement, data []byte) error {
	if p.verifyErr != nil {
		return p.verifyErr
	}

	if !bytes.Equal(data, proofData(st)) {
		return xerrors.New("proof does not match statement")
	}

	return nil
}

func proofData(st proof.Statement) []byte {
	return append(st.TransactionDigest.Bytes(), st.AccountUpdateDigest.Bytes()...)
}

// Suite is a fake implementation of proof.Suite.
type Suite struct {
	digestErr  error
	compileErr error
	checkErr   error
	proverErr  error
	verifyErr  error

	// Compiled keeps track of the compilations.
	Compiled *Call
}

// NewSuite returns a fake suite that behaves deterministically.
func NewSuite() *Suite {
	return &Suite{Compiled: &Call{}}
}

// NewBadDigestSuite returns a suite that fails to compute digests.
func NewBadDigestSuite() *Suite {
	return &Suite{digestErr: fakeErr, Compiled: &Call{}}
}

// NewBadCompileSuite returns a suite that fails to compile.
func NewBadCompileSuite() *Suite {
	return &Suite{compileErr: fakeErr, Compiled: &Call{}}
}

// NewBadCheckSuite returns a suite whose checked runs fail.
func NewBadCheckSuite() *Suite {
	return &Suite{checkErr: fakeErr, Compiled: &Call{}}
}

// NewBadProverSuite returns a suite whose provers fail.
func NewBadProverSuite() *Suite {
	return &Suite{proverErr: fakeErr, Compiled: &Call{}}
}

// NewBadVerifySuite returns a suite whose provers reject every proof.
func NewBadVerifySuite() *Suite {
	return &Suite{verifyErr: fakeErr, Compiled: &Call{}}
}

// ComputeDigest implements proof.Suite.
func (s *Suite) ComputeDigest(value serde.Fingerprinter) (proof.Digest, error) {
	if s.digestErr != nil {
		return proof.Digest{}, s.digestErr
	}

	h := sha256.New()

	err := value.Fingerprint(h)
	if err != nil {
		return proof.Digest{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	return proof.NewDigestFromBytes(h.Sum(nil)), nil
}

// HashTransaction implements proof.Suite.
func (s *Suite) HashTransaction(update, tail proof.Digest) (proof.Digest, error) {
	if s.digestErr != nil {
		return proof.Digest{}, s.digestErr
	}

	h := sha256.New()
	h.Write(update.Bytes())
	h.Write(tail.Bytes())

	return proof.NewDigestFromBytes(h.Sum(nil)), nil
}

// CompileRules implements proof.Suite. It runs the rule bodies and returns an
// artifact with one fake prover per rule.
func (s *Suite) CompileRules(rules []proof.Rule) (*proof.Artifact, error) {
	if s.compileErr != nil {
		return nil, s.compileErr
	}

	provers := make([]proof.Prover, len(rules))
	key := sha256.New()

	for i, rule := range rules {
		err := rule.Body()
		if err != nil {
			return nil, xerrors.Errorf("rule '%s' failed: %v", rule.Name, err)
		}

		key.Write([]byte(rule.Name))

		provers[i] = &Prover{
			arity:     rule.Arity,
			err:       s.proverErr,
			verifyErr: s.verifyErr,
		}

		s.Compiled.Add(rule.Name, rule.Arity)
	}

	return &proof.Artifact{
		Key: proof.VerificationKey{
			Data: []byte("verification key"),
			Hash: proof.NewDigestFromBytes(key.Sum(nil)),
		},
		Provers: provers,
	}, nil
}

// RunChecked implements proof.Suite.
func (s *Suite) RunChecked(body func() error) error {
	if s.checkErr != nil {
		return s.checkErr
	}

	return body()
}

// AssertEqualDigest implements proof.Suite.
func (s *Suite) AssertEqualDigest(a, b proof.Digest) error {
	if !a.Equal(b) {
		return xerrors.Errorf("digest '%v' != '%v'", a, b)
	}

	return nil
}
