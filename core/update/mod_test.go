package update

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/internal/testing/fake"
	"go.dedis.ch/prova/proof"
)

func TestUpdate_New(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	require.True(t, u.GetAddress().Equal(fake.NewPublicKey(0)))
	require.Equal(t, int64(0), u.GetBalanceChange())

	pre := u.GetPreconditions()
	require.Equal(t, FullRange(), pre.Balance)
	require.Equal(t, FullRange(), pre.Nonce)

	_, found := u.GetVerificationKey()
	require.False(t, found)

	_, found = u.GetPermissions()
	require.False(t, found)

	_, found = u.GetAuthorization()
	require.False(t, found)
}

func TestUpdate_AddBalance(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	u.AddBalance(10)
	u.AddBalance(-3)

	require.Equal(t, int64(7), u.GetBalanceChange())
}

func TestUpdate_SetVerificationKey(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	key := proof.VerificationKey{
		Data: []byte("deadbeef"),
		Hash: proof.NewDigestFromBytes([]byte{1, 2, 3}),
	}

	u.SetVerificationKey(key)

	stored, found := u.GetVerificationKey()
	require.True(t, found)
	require.Equal(t, key, stored)
}

func TestUpdate_SetPermissions(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	u.SetPermissions(DefaultPermissions())

	perms, found := u.GetPermissions()
	require.True(t, found)
	require.Equal(t, PermissionProof, perms.EditState)
	require.Equal(t, PermissionProof, perms.Send)
	require.Equal(t, PermissionNone, perms.Receive)
	require.Equal(t, PermissionSignature, perms.SetVerificationKey)
}

func TestUpdate_EmitEvent(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	u.EmitEvent(proof.NewFieldFromUint64(1), proof.NewFieldFromUint64(2))
	u.EmitEvent(proof.NewFieldFromUint64(3))

	events := u.GetEvents()
	require.Len(t, events, 2)
	require.Len(t, events[0], 2)
	require.Len(t, events[1], 1)
}

func TestUpdate_Authorization(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	ok := u.SetAuthorization(NewProofAuthorization([]byte("proof")))
	require.True(t, ok)

	// The slot is single-assignment so the second write is rejected.
	ok = u.SetAuthorization(NewSignatureAuthorization(fake.Signature{}))
	require.False(t, ok)

	auth, found := u.GetAuthorization()
	require.True(t, found)
	require.Equal(t, KindProof, auth.GetKind())
	require.Equal(t, []byte("proof"), auth.GetProof())
}

func TestUpdate_Sign(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	err := u.Sign(fake.NewSigner(), crypto.NewSha256Factory())
	require.NoError(t, err)

	auth, found := u.GetAuthorization()
	require.True(t, found)
	require.Equal(t, KindSignature, auth.GetKind())
	require.NotNil(t, auth.GetSignature())

	u = New(fake.NewPublicKey(0))
	err = u.Sign(fake.NewSigner(), fake.NewHashFactory(fake.NewBadHash()))
	require.EqualError(t, err,
		"couldn't fingerprint update: couldn't write address: fake error")

	u = New(fake.NewPublicKey(0))
	err = u.Sign(fake.NewBadSigner(), crypto.NewSha256Factory())
	require.EqualError(t, err, "signer failed: fake error")

	u = New(fake.NewPublicKey(0))
	u.SetAuthorization(NewProofAuthorization(nil))
	err = u.Sign(fake.NewSigner(), crypto.NewSha256Factory())
	require.EqualError(t, err, "update is already authorized")
}

func TestUpdate_AssertPreconditionInvariants(t *testing.T) {
	u := New(fake.NewPublicKey(0))
	require.NoError(t, u.AssertPreconditionInvariants())

	u.RequireBalanceBetween(1, 100)
	u.RequireNonceBetween(0, 5)
	require.NoError(t, u.AssertPreconditionInvariants())

	u.RequireBalanceBetween(5, 1)
	require.EqualError(t, u.AssertPreconditionInvariants(),
		"balance range [5, 1] is inverted")

	u.RequireBalanceBetween(1, 5)
	u.RequireNonceBetween(3, 2)
	require.EqualError(t, u.AssertPreconditionInvariants(),
		"nonce range [3, 2] is inverted")
}

func TestUpdate_RequireNonce(t *testing.T) {
	u := New(fake.NewPublicKey(0))

	u.RequireNonce(42)

	pre := u.GetPreconditions()
	require.Equal(t, Range{Lower: 42, Upper: 42}, pre.Nonce)
}

func TestUpdate_Fingerprint(t *testing.T) {
	u := New(fake.NewPublicKey(0))
	u.AddBalance(5)
	u.SetPermissions(DefaultPermissions())
	u.EmitEvent(proof.NewFieldFromUint64(1))

	buffer := new(bytes.Buffer)
	err := u.Fingerprint(buffer)
	require.NoError(t, err)

	// Same content produces the same fingerprint.
	other := New(fake.NewPublicKey(0))
	other.AddBalance(5)
	other.SetPermissions(DefaultPermissions())
	other.EmitEvent(proof.NewFieldFromUint64(1))

	second := new(bytes.Buffer)
	require.NoError(t, other.Fingerprint(second))
	require.Equal(t, buffer.Bytes(), second.Bytes())

	// The authorization does not change the fingerprint.
	other.SetAuthorization(NewProofAuthorization([]byte("proof")))

	third := new(bytes.Buffer)
	require.NoError(t, other.Fingerprint(third))
	require.Equal(t, buffer.Bytes(), third.Bytes())

	// Any content change does.
	other.AddBalance(1)

	fourth := new(bytes.Buffer)
	require.NoError(t, other.Fingerprint(fourth))
	require.NotEqual(t, buffer.Bytes(), fourth.Bytes())

	err = u.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write address: fake error")

	u.SetVerificationKey(proof.VerificationKey{Data: []byte("key")})

	err = u.Fingerprint(fake.NewBadHashWithDelay(2))
	require.EqualError(t, err, "couldn't write key: fake error")

	bad := New(fake.NewBadPublicKey())
	err = bad.Fingerprint(new(bytes.Buffer))
	require.EqualError(t, err, "couldn't marshal address: fake error")
}

func TestSession_Basic(t *testing.T) {
	session := NewSession()

	require.NotEmpty(t, session.GetID())
	require.False(t, session.IsClosed())
	require.Empty(t, session.GetUpdates())

	other := NewSession()
	require.NotEqual(t, session.GetID(), other.GetID())

	first := New(fake.NewPublicKey(0))
	second := New(fake.NewPublicKey(1))

	session.Add(first)
	session.Add(second)

	updates := session.GetUpdates()
	require.Len(t, updates, 2)
	require.Same(t, first, updates[0])
	require.Same(t, second, updates[1])

	session.Close()
	require.True(t, session.IsClosed())
}

func TestAmount_Fields(t *testing.T) {
	amount := Amount(42)

	require.Equal(t, 1, amount.SizeInFields())

	fields := amount.ToFields()
	require.Len(t, fields, 1)
	require.Equal(t, uint64(42), fields[0].Uint64())

	restored, err := AmountType{}.FromFields(fields)
	require.NoError(t, err)
	require.Equal(t, amount, restored)

	require.Equal(t, 1, AmountType{}.SizeInFields())

	_, err = AmountType{}.FromFields(nil)
	require.EqualError(t, err, "expected 1 field element, got 0")
}
