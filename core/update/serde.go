// This file contains the serialization glue of the account update. The
// formats themselves live in subpackages, like json.
//

package update

import (
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/proof"
	"go.dedis.ch/prova/serde"
	"go.dedis.ch/prova/serde/registry"
	"golang.org/x/xerrors"
)

var updateFormats = registry.NewSimpleRegistry()

// RegisterUpdateFormat registers the engine for the provided format.
func RegisterUpdateFormat(f serde.Format, e serde.FormatEngine) {
	updateFormats.Register(f, e)
}

// PublicKeyFac is the key of the address factory in a serialization context.
type PublicKeyFac struct{}

// SignatureFac is the key of the signature factory in a serialization
// context.
type SignatureFac struct{}

// Option is the type of options to build an update from its serialized form.
type Option func(*Update)

// WithBalance sets the balance change of the update.
func WithBalance(delta int64) Option {
	return func(u *Update) {
		u.balanceDelta = delta
	}
}

// WithKey sets the verification key rotation of the update.
func WithKey(key proof.VerificationKey) Option {
	return func(u *Update) {
		u.key = &key
	}
}

// WithPermissions sets the permissions of the update.
func WithPermissions(perms Permissions) Option {
	return func(u *Update) {
		u.permissions = &perms
	}
}

// WithPreconditions sets the preconditions of the update.
func WithPreconditions(pre Preconditions) Option {
	return func(u *Update) {
		u.preconditions = pre
	}
}

// WithEvents sets the events of the update.
func WithEvents(events [][]proof.Field) Option {
	return func(u *Update) {
		u.events = events
	}
}

// WithAuthorization attaches the authorization to the update.
func WithAuthorization(auth Authorization) Option {
	return func(u *Update) {
		u.auth.Set(auth)
	}
}

// NewWithOptions returns an update for the address with the options applied
// in order. It is primarily used by the deserialization formats.
func NewWithOptions(address crypto.PublicKey, opts ...Option) *Update {
	u := New(address)

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// ClassName is a class reference restored from a serialized lazy
// authorization. Only the name survives the round trip.
//
// - implements update.ClassReference
type ClassName string

// GetName implements update.ClassReference. It returns the name of the
// class.
func (n ClassName) GetName() string {
	return string(n)
}

// Serialize implements serde.Message. It serializes the update with the
// format of the context.
func (u *Update) Serialize(ctx serde.Context) ([]byte, error) {
	format := updateFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, u)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode update: %v", err)
	}

	return data, nil
}

// Factory is a factory to deserialize account updates.
//
// - implements serde.Factory
type Factory struct {
	pubkeyFac crypto.PublicKeyFactory
	sigFac    crypto.SignatureFactory
}

// NewFactory returns a factory using the address and signature factories to
// restore the cryptographic material of the updates.
func NewFactory(pk crypto.PublicKeyFactory, sig crypto.SignatureFactory) Factory {
	return Factory{
		pubkeyFac: pk,
		sigFac:    sig,
	}
}

// Deserialize implements serde.Factory. It populates the update from the data
// if appropriate, otherwise it returns an error.
func (f Factory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := updateFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, PublicKeyFac{}, f.pubkeyFac)
	ctx = serde.WithFactory(ctx, SignatureFac{}, f.sigFac)

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode update: %v", err)
	}

	return msg, nil
}
