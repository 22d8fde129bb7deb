package txn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/internal/testing/fake"
)

func TestTransaction_New(t *testing.T) {
	first := update.New(fake.NewPublicKey(0))
	second := update.New(fake.NewPublicKey(1))

	tx := New(first, second)

	updates := tx.GetUpdates()
	require.Len(t, updates, 2)
	require.Same(t, first, updates[0])
	require.Same(t, second, updates[1])

	_, found := tx.GetFeePayer()
	require.False(t, found)
	require.Equal(t, uint64(0), tx.GetFee())
	require.Equal(t, uint64(0), tx.GetNonce())
}

func TestTransaction_SignFeePayer(t *testing.T) {
	tx := New(update.New(fake.NewPublicKey(0)))

	err := tx.SignFeePayer(fake.NewSigner(), crypto.NewSha256Factory(), 10, 2)
	require.EqualError(t, err, "transaction has no fee payer")

	feePayer := update.New(fake.NewPublicKey(1))
	tx.SetFeePayer(feePayer)

	err = tx.SignFeePayer(fake.NewSigner(), crypto.NewSha256Factory(), 10, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(10), tx.GetFee())
	require.Equal(t, uint64(2), tx.GetNonce())

	// The nonce becomes an exact precondition of the fee payer.
	require.Equal(t, update.Range{Lower: 2, Upper: 2},
		feePayer.GetPreconditions().Nonce)

	auth, found := feePayer.GetAuthorization()
	require.True(t, found)
	require.Equal(t, update.KindSignature, auth.GetKind())

	err = tx.SignFeePayer(fake.NewSigner(), crypto.NewSha256Factory(), 10, 2)
	require.EqualError(t, err, "fee payer is already authorized")

	tx = New()
	tx.SetFeePayer(update.New(fake.NewPublicKey(1)))

	err = tx.SignFeePayer(fake.NewBadSigner(), crypto.NewSha256Factory(), 0, 0)
	require.EqualError(t, err, "signer failed: fake error")

	err = tx.SignFeePayer(fake.NewSigner(),
		fake.NewHashFactory(fake.NewBadHash()), 0, 0)
	require.EqualError(t, err,
		"couldn't fingerprint transaction: couldn't write fee: fake error")
}

func TestTransaction_Fingerprint(t *testing.T) {
	u := update.New(fake.NewPublicKey(0))
	u.AddBalance(5)

	tx := New(u)

	buffer := new(bytes.Buffer)
	require.NoError(t, tx.Fingerprint(buffer))

	other := update.New(fake.NewPublicKey(0))
	other.AddBalance(5)

	second := new(bytes.Buffer)
	require.NoError(t, New(other).Fingerprint(second))
	require.Equal(t, buffer.Bytes(), second.Bytes())

	// The fee payer is part of the fingerprint.
	tx.SetFeePayer(update.New(fake.NewPublicKey(1)))

	third := new(bytes.Buffer)
	require.NoError(t, tx.Fingerprint(third))
	require.NotEqual(t, buffer.Bytes(), third.Bytes())

	err := tx.Fingerprint(fake.NewBadHash())
	require.EqualError(t, err, "couldn't write fee: fake error")

	err = New(update.New(fake.NewBadPublicKey())).Fingerprint(new(bytes.Buffer))
	require.EqualError(t, err,
		"couldn't write update 0: couldn't marshal address: fake error")
}

func TestTransaction_Serialize(t *testing.T) {
	tx := New()

	_, err := tx.Serialize(fake.NewContextWithFormat("bad"))
	require.EqualError(t, err,
		"couldn't encode transaction: format 'bad' is not implemented")
}

func TestTransactionFactory_Deserialize(t *testing.T) {
	fac := NewTransactionFactory(update.NewFactory(
		fake.PublicKeyFactory{}, fake.SignatureFactory{}))

	_, err := fac.Deserialize(fake.NewContextWithFormat("bad"), nil)
	require.EqualError(t, err,
		"couldn't decode transaction: format 'bad' is not implemented")
}
