// Package json implements the JSON format of the account updates.
//
package json

import (
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/proof"
	"go.dedis.ch/prova/serde"
	"golang.org/x/xerrors"
)

func init() {
	update.RegisterUpdateFormat(serde.FormatJSON, updateFormat{})
}

// VerificationKeyJSON is the JSON message of a verification key rotation.
type VerificationKeyJSON struct {
	Data []byte
	Hash []byte
}

// PermissionsJSON is the JSON message of the account permissions.
type PermissionsJSON struct {
	EditState          uint8
	Send               uint8
	Receive            uint8
	SetVerificationKey uint8
}

// RangeJSON is the JSON message of an inclusive interval precondition.
type RangeJSON struct {
	Lower uint64
	Upper uint64
}

// PreconditionsJSON is the JSON message of the update preconditions.
type PreconditionsJSON struct {
	Balance RangeJSON
	Nonce   RangeJSON
}

// AuthorizationJSON is the JSON message of the authorization of an update. A
// lazy authorization only keeps the method and class names, as the proof is
// expected to be generated before submission.
type AuthorizationJSON struct {
	Kind      string
	Signature []byte `json:",omitempty"`
	Proof     []byte `json:",omitempty"`
	Method    string `json:",omitempty"`
	Class     string `json:",omitempty"`
}

// UpdateJSON is the JSON message of an account update.
type UpdateJSON struct {
	Address         []byte
	BalanceDelta    int64
	VerificationKey *VerificationKeyJSON `json:",omitempty"`
	Permissions     *PermissionsJSON     `json:",omitempty"`
	Preconditions   PreconditionsJSON
	Events          [][][]byte         `json:",omitempty"`
	Authorization   *AuthorizationJSON `json:",omitempty"`
}

// UpdateFormat is the engine to encode and decode account update messages in
// JSON format.
//
// - implements serde.FormatEngine
type updateFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of the
// update message if appropriate, otherwise an error.
func (f updateFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	u, ok := msg.(*update.Update)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	addr, err := u.GetAddress().MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal address: %v", err)
	}

	pre := u.GetPreconditions()

	m := UpdateJSON{
		Address:      addr,
		BalanceDelta: u.GetBalanceChange(),
		Preconditions: PreconditionsJSON{
			Balance: RangeJSON{Lower: pre.Balance.Lower, Upper: pre.Balance.Upper},
			Nonce:   RangeJSON{Lower: pre.Nonce.Lower, Upper: pre.Nonce.Upper},
		},
	}

	key, found := u.GetVerificationKey()
	if found {
		m.VerificationKey = &VerificationKeyJSON{
			Data: key.Data,
			Hash: key.Hash.Bytes(),
		}
	}

	perms, found := u.GetPermissions()
	if found {
		m.Permissions = &PermissionsJSON{
			EditState:          uint8(perms.EditState),
			Send:               uint8(perms.Send),
			Receive:            uint8(perms.Receive),
			SetVerificationKey: uint8(perms.SetVerificationKey),
		}
	}

	for _, event := range u.GetEvents() {
		fields := make([][]byte, len(event))
		for i, field := range event {
			fields[i] = field[:]
		}

		m.Events = append(m.Events, fields)
	}

	auth, found := u.GetAuthorization()
	if found {
		m.Authorization, err = encodeAuthorization(auth)
		if err != nil {
			return nil, xerrors.Errorf("couldn't encode authorization: %v", err)
		}
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

func encodeAuthorization(auth update.Authorization) (*AuthorizationJSON, error) {
	switch auth.GetKind() {
	case update.KindSignature:
		m := &AuthorizationJSON{Kind: "signature"}

		sig := auth.GetSignature()
		if sig != nil {
			data, err := sig.MarshalBinary()
			if err != nil {
				return nil, xerrors.Errorf("couldn't marshal signature: %v", err)
			}

			m.Signature = data
		}

		return m, nil
	case update.KindProof:
		return &AuthorizationJSON{Kind: "proof", Proof: auth.GetProof()}, nil
	case update.KindLazyProof:
		lazy := auth.GetLazy()

		return &AuthorizationJSON{
			Kind:   "lazy",
			Method: lazy.Method,
			Class:  lazy.Class.GetName(),
		}, nil
	default:
		return &AuthorizationJSON{Kind: "none"}, nil
	}
}

// Decode implements serde.FormatEngine. It populates the update from the data
// if appropriate, otherwise it returns an error.
func (f updateFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := UpdateJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal: %v", err)
	}

	fac := ctx.GetFactory(update.PublicKeyFac{})

	pubkeyFac, ok := fac.(crypto.PublicKeyFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid public key factory of type '%T'", fac)
	}

	address, err := pubkeyFac.FromBytes(m.Address)
	if err != nil {
		return nil, xerrors.Errorf("couldn't deserialize address: %v", err)
	}

	opts := []update.Option{
		update.WithBalance(m.BalanceDelta),
		update.WithPreconditions(update.Preconditions{
			Balance: update.Range{Lower: m.Preconditions.Balance.Lower, Upper: m.Preconditions.Balance.Upper},
			Nonce:   update.Range{Lower: m.Preconditions.Nonce.Lower, Upper: m.Preconditions.Nonce.Upper},
		}),
	}

	if m.VerificationKey != nil {
		opts = append(opts, update.WithKey(proof.VerificationKey{
			Data: m.VerificationKey.Data,
			Hash: proof.NewDigestFromBytes(m.VerificationKey.Hash),
		}))
	}

	if m.Permissions != nil {
		opts = append(opts, update.WithPermissions(update.Permissions{
			EditState:          update.Permission(m.Permissions.EditState),
			Send:               update.Permission(m.Permissions.Send),
			Receive:            update.Permission(m.Permissions.Receive),
			SetVerificationKey: update.Permission(m.Permissions.SetVerificationKey),
		}))
	}

	if len(m.Events) > 0 {
		events := make([][]proof.Field, len(m.Events))
		for i, event := range m.Events {
			fields := make([]proof.Field, len(event))
			for j, field := range event {
				copy(fields[j][:], field)
			}

			events[i] = fields
		}

		opts = append(opts, update.WithEvents(events))
	}

	if m.Authorization != nil {
		auth, err := f.decodeAuthorization(ctx, m.Authorization)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode authorization: %v", err)
		}

		if auth != nil {
			opts = append(opts, update.WithAuthorization(*auth))
		}
	}

	return update.NewWithOptions(address, opts...), nil
}

func (f updateFormat) decodeAuthorization(ctx serde.Context,
	m *AuthorizationJSON) (*update.Authorization, error) {

	switch m.Kind {
	case "signature":
		var sig crypto.Signature

		if len(m.Signature) > 0 {
			fac := ctx.GetFactory(update.SignatureFac{})

			sigFac, ok := fac.(crypto.SignatureFactory)
			if !ok {
				return nil, xerrors.Errorf("invalid signature factory of type '%T'", fac)
			}

			var err error

			sig, err = sigFac.FromBytes(m.Signature)
			if err != nil {
				return nil, xerrors.Errorf("couldn't deserialize signature: %v", err)
			}
		}

		auth := update.NewSignatureAuthorization(sig)

		return &auth, nil
	case "proof":
		auth := update.NewProofAuthorization(m.Proof)

		return &auth, nil
	case "lazy":
		auth := update.NewLazyAuthorization(&update.Lazy{
			Method: m.Method,
			Class:  update.ClassName(m.Class),
		})

		return &auth, nil
	case "none", "":
		return nil, nil
	default:
		return nil, xerrors.Errorf("unknown authorization kind '%s'", m.Kind)
	}
}
