// Package gnark implements the proof system contracts with the gnark library.
//
// The digests are computed with MiMC over the BN254 scalar field so that the
// same hash can be recomputed inside the circuits. The proofs are generated
// with the Groth16 scheme, one circuit per registered method, and the
// verification keys of every method are aggregated into the verification key
// of the class.
//
package gnark

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"go.dedis.ch/prova"
	"go.dedis.ch/prova/proof"
	"go.dedis.ch/prova/serde"
	"golang.org/x/xerrors"
)

// chunkLength is the number of fingerprint bytes absorbed per field element.
// 31 bytes always fit below the BN254 scalar modulus.
const chunkLength = 31

// Suite is the gnark implementation of the proof system primitives.
//
// - implements proof.Suite
type Suite struct {
	logger zerolog.Logger
}

// NewSuite returns a new gnark suite.
func NewSuite() *Suite {
	return &Suite{
		logger: prova.Logger.With().Str("suite", "gnark").Logger(),
	}
}

// ComputeDigest implements proof.Suite. It absorbs the fingerprint of the
// value into a MiMC hash, 31 bytes per field element.
func (s *Suite) ComputeDigest(value serde.Fingerprinter) (proof.Digest, error) {
	buffer := new(bytes.Buffer)

	err := value.Fingerprint(buffer)
	if err != nil {
		return proof.Digest{}, xerrors.Errorf("couldn't fingerprint value: %v", err)
	}

	h := mimc.NewMiMC()

	data := buffer.Bytes()
	for len(data) > 0 {
		n := chunkLength
		if len(data) < n {
			n = len(data)
		}

		elem := new(fr.Element).SetBytes(data[:n])
		encoded := elem.Bytes()

		_, err = h.Write(encoded[:])
		if err != nil {
			return proof.Digest{}, xerrors.Errorf("mimc write failed: %v", err)
		}

		data = data[n:]
	}

	return proof.NewDigestFromBytes(h.Sum(nil)), nil
}

// HashTransaction implements proof.Suite. It derives the transaction digest
// from the account update digest and the tail. The same derivation is
// enforced in-circuit by the statement constraint.
func (s *Suite) HashTransaction(update proof.Digest, tail proof.Digest) (proof.Digest, error) {
	h := mimc.NewMiMC()

	for _, digest := range []proof.Digest{update, tail} {
		elem := new(fr.Element).SetBytes(digest[:])
		encoded := elem.Bytes()

		_, err := h.Write(encoded[:])
		if err != nil {
			return proof.Digest{}, xerrors.Errorf("mimc write failed: %v", err)
		}
	}

	return proof.NewDigestFromBytes(h.Sum(nil)), nil
}

// CompileRules implements proof.Suite. It runs every rule body once, compiles
// one statement circuit per rule and aggregates the verification keys. Any
// failure aborts the compilation and no partial artifact is returned.
func (s *Suite) CompileRules(rules []proof.Rule) (*proof.Artifact, error) {
	// The gnark compiler is quite verbose so its logger is silenced for the
	// duration of the compilation.
	previous := gnarklogger.Logger()
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))

	defer gnarklogger.Set(previous)

	provers := make([]proof.Prover, len(rules))
	keys := new(bytes.Buffer)

	for i, rule := range rules {
		err := rule.Body()
		if err != nil {
			return nil, xerrors.Errorf("rule '%s' failed: %v", rule.Name, err)
		}

		circuit := &statementCircuit{
			Witnesses: make([]frontend.Variable, rule.Arity),
		}

		cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
		if err != nil {
			return nil, xerrors.Errorf("couldn't compile rule '%s': %v", rule.Name, err)
		}

		pk, vk, err := groth16.Setup(cs)
		if err != nil {
			return nil, xerrors.Errorf("groth16 setup failed for '%s': %v", rule.Name, err)
		}

		err = appendVerifyingKey(keys, vk)
		if err != nil {
			return nil, xerrors.Errorf("couldn't aggregate key of '%s': %v", rule.Name, err)
		}

		provers[i] = &prover{
			name:  rule.Name,
			arity: rule.Arity,
			cs:    cs,
			pk:    pk,
			vk:    vk,
		}

		s.logger.Debug().
			Str("rule", rule.Name).
			Int("constraints", cs.GetNbConstraints()).
			Msg("rule compiled")
	}

	artifact := &proof.Artifact{
		Key: proof.VerificationKey{
			Data: keys.Bytes(),
			Hash: proof.NewDigestFromBytes(hashKeyData(keys.Bytes())),
		},
		Provers: provers,
	}

	return artifact, nil
}

// RunChecked implements proof.Suite. It executes the body and verifies the
// constraints it asserts, turning a panic of the body into an error.
func (s *Suite) RunChecked(body func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("checked run panicked: %v", r)
		}
	}()

	err = body()
	if err != nil {
		return xerrors.Errorf("checked run failed: %v", err)
	}

	return nil
}

// AssertEqualDigest implements proof.Suite. It is the out-of-circuit flavour
// of the equality assertion. The in-circuit flavour is the constraint of the
// statement circuit.
func (s *Suite) AssertEqualDigest(a, b proof.Digest) error {
	if !a.Equal(b) {
		return xerrors.Errorf("digest '%v' != '%v'", a, b)
	}

	return nil
}

func hashKeyData(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func appendVerifyingKey(w *bytes.Buffer, vk groth16.VerifyingKey) error {
	buffer := new(bytes.Buffer)

	_, err := vk.WriteTo(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't serialize key: %v", err)
	}

	size := make([]byte, 4)
	binary.LittleEndian.PutUint32(size, uint32(buffer.Len()))

	w.Write(size)
	w.Write(buffer.Bytes())

	return nil
}
