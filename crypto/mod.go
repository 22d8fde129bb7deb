// Package crypto defines the cryptographic primitives needed by the toolkit.
//
// It contains the abstractions of the hash factory, the public keys and the
// signers so that the core packages never depend on a concrete suite. The
// implementations live in the subpackages.
//
package crypto

import (
	"encoding"
	"fmt"
	"hash"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler

	// Equal returns true when both signatures are equal.
	Equal(other Signature) bool
}

// SignatureFactory is a factory to create signatures from their binary
// representation.
type SignatureFactory interface {
	// FromBytes returns the signature of the bytes.
	FromBytes(data []byte) (Signature, error)
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler
	fmt.Stringer

	// Verify returns nil when the signature matches the message for this
	// public key.
	Verify(msg []byte, signature Signature) error

	// Equal returns true when the other object is the same public key.
	Equal(other interface{}) bool
}

// PublicKeyFactory is a factory to create public keys from their binary
// representation.
type PublicKeyFactory interface {
	// FromBytes returns the public key of the bytes.
	FromBytes(data []byte) (PublicKey, error)
}

// Signer provides the primitives to sign and verify signatures.
type Signer interface {
	// GetPublicKey returns the public key of the signer.
	GetPublicKey() PublicKey

	// Sign returns a signature that will match the message for the signer
	// public key.
	Sign(msg []byte) (Signature, error)
}
