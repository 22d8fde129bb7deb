// Package proof defines the contracts of the external proof system.
//
// The core packages never talk to a proving backend directly. They compile
// the registered methods into rules, derive statements with the digest
// primitives and generate proofs through the prover handles, all through the
// interfaces of this package. The gnark subpackage provides the default
// implementation.
//
package proof

import (
	"context"
	"encoding/hex"
	"math/big"

	"go.dedis.ch/prova/serde"
)

// DigestLength is the size in bytes of a digest and of an encoded field
// element.
const DigestLength = 32

// Digest is an opaque fixed-size cryptographic value produced by the proof
// system's hash primitives.
type Digest [DigestLength]byte

// NewDigestFromBytes returns the digest filled with the data. Extra bytes are
// ignored and missing ones are left to zero.
func NewDigestFromBytes(data []byte) Digest {
	d := Digest{}
	copy(d[:], data)

	return d
}

// Bytes returns the slice of bytes of the digest.
func (d Digest) Bytes() []byte {
	return append([]byte{}, d[:]...)
}

// Equal returns true when both digests are equal.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// String implements fmt.Stringer. It returns a shortened hexadecimal
// representation of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:8])
}

// Field is an element of the proof system's scalar field, encoded as 32
// big-endian bytes. The zero value is the canonical zero element.
type Field [DigestLength]byte

// NewFieldFromUint64 returns the field element of the value.
func NewFieldFromUint64(value uint64) Field {
	f := Field{}
	big.NewInt(0).SetUint64(value).FillBytes(f[:])

	return f
}

// BigInt returns the big integer representation of the field element.
func (f Field) BigInt() *big.Int {
	return new(big.Int).SetBytes(f[:])
}

// Uint64 returns the field element as an unsigned integer. Higher bytes are
// dropped.
func (f Field) Uint64() uint64 {
	return new(big.Int).SetBytes(f[:]).Uint64()
}

// Fieldable is the capability of a value to be represented as field elements,
// which makes it eligible as a witness argument of a provable method.
type Fieldable interface {
	// SizeInFields returns the number of field elements of the value.
	SizeInFields() int

	// ToFields returns the field representation of the value.
	ToFields() []Field
}

// Type describes a witness argument type. It can restore a value from its
// field representation, which is also how the canonical zero value is built.
type Type interface {
	// SizeInFields returns the number of field elements of the values of the
	// type.
	SizeInFields() int

	// FromFields returns the value restored from the field elements.
	FromFields(fields []Field) (Fieldable, error)
}

// Argument marks a nested-proof argument type. Declaring one is rejected
// until proof-valued arguments are supported.
type Argument interface {
	// ProofArgument is a marker so that the kind of the argument can be told
	// apart from a witness.
	ProofArgument()
}

// Statement is the cryptographic digest pair binding a proof to the exact
// transaction content it attests to.
type Statement struct {
	// TransactionDigest is the digest of the transaction tail.
	TransactionDigest Digest

	// AccountUpdateDigest is the digest of the account update.
	AccountUpdateDigest Digest
}

// Equal returns true when both statements are equal field by field.
func (st Statement) Equal(other Statement) bool {
	return st.TransactionDigest.Equal(other.TransactionDigest) &&
		st.AccountUpdateDigest.Equal(other.AccountUpdateDigest)
}

// Rule is a provable method prepared for the compiler. The body invokes the
// real method body bound to a scratch instance.
type Rule struct {
	// Name is the method name the rule is compiled for.
	Name string

	// Arity is the number of private field elements the method consumes.
	Arity int

	// Body runs the method under the compile-time execution context.
	Body func() error
}

// VerificationKey is the public artifact produced by a compilation. It is
// used to check proofs without re-running the circuits.
type VerificationKey struct {
	Data []byte
	Hash Digest
}

// Prover is the opaque handle to generate and check proofs for one compiled
// method.
type Prover interface {
	// Prove produces a proof bound to the statement. The supplied witnesses
	// are the private assignment of the circuit, or nil to use canonical
	// zero values. The call may suspend for a long time, hence the context.
	Prove(ctx context.Context, st Statement, witnesses []Field) ([]byte, error)

	// Verify checks the proof against the statement.
	Verify(st Statement, data []byte) error
}

// Artifact is the result of a compilation: the verification key of the class
// and one prover handle per registered method, indexed identically to the
// method list.
type Artifact struct {
	Key     VerificationKey
	Provers []Prover
}

// Suite provides the primitives of the proof system consumed by the core.
type Suite interface {
	// ComputeDigest returns the digest of the deterministic fingerprint of
	// the value.
	ComputeDigest(value serde.Fingerprinter) (Digest, error)

	// HashTransaction derives the transaction digest from an account update
	// digest. The tail is a placeholder for future multi-update chaining and
	// is threaded through unchanged.
	HashTransaction(update Digest, tail Digest) (Digest, error)

	// CompileRules compiles the rules and returns the artifact. Any failure
	// in a rule body aborts the compilation with no partial artifact.
	CompileRules(rules []Rule) (*Artifact, error)

	// RunChecked executes the body while verifying the constraints it
	// asserts. A constraint violation is returned as an error.
	RunChecked(body func() error) error

	// AssertEqualDigest is the equality assertion primitive. Outside the
	// prover it is a plain value comparison; inside the prover the same
	// relation is enforced by the circuit constraints.
	AssertEqualDigest(a, b Digest) error
}
