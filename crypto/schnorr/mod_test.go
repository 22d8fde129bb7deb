package schnorr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSigner_SignVerify(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("message"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("message"), sig)
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("tampered"), sig)
	require.Error(t, err)

	other := NewSigner()

	err = other.GetPublicKey().Verify([]byte("message"), sig)
	require.Error(t, err)
}

func TestSigner_FromBytes(t *testing.T) {
	signer := NewSigner()

	data, err := signer.GetPrivateKey()
	require.NoError(t, err)

	restored, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, restored.GetPublicKey().Equal(signer.GetPublicKey()))

	sig, err := restored.Sign([]byte("message"))
	require.NoError(t, err)
	require.NoError(t, signer.GetPublicKey().Verify([]byte("message"), sig))

	_, err = NewSignerFromBytes([]byte("garbage"))
	require.Error(t, err)
}

func TestPublicKey_Marshal(t *testing.T) {
	signer := NewSigner()

	pubkey := signer.GetPublicKey().(PublicKey)

	data, err := pubkey.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, restored.Equal(pubkey))

	_, err = NewPublicKey([]byte("garbage"))
	require.Error(t, err)
}

func TestPublicKey_Address(t *testing.T) {
	signer := NewSigner()

	pubkey := signer.GetPublicKey().(PublicKey)

	restored, err := NewPublicKeyFromBase58(pubkey.Address())
	require.NoError(t, err)
	require.True(t, restored.Equal(pubkey))

	_, err = NewPublicKeyFromBase58("not-base58-0OIl")
	require.Error(t, err)
}

func TestPublicKey_String(t *testing.T) {
	signer := NewSigner()

	pubkey := signer.GetPublicKey().(PublicKey)
	require.Regexp(t, "^schnorr:[0-9a-f]{16}$", pubkey.String())
}

func TestPublicKey_Verify_InvalidType(t *testing.T) {
	signer := NewSigner()

	err := signer.GetPublicKey().Verify([]byte("message"), nil)
	require.EqualError(t, err, "invalid signature type '<nil>'")
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})

	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
	require.False(t, sig.Equal(NewSignature([]byte{3, 2, 1})))
	require.False(t, sig.Equal(nil))
}

func TestFactories(t *testing.T) {
	signer := NewSigner()

	data, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)

	pubkey, err := NewPublicKeyFactory().FromBytes(data)
	require.NoError(t, err)
	require.True(t, pubkey.Equal(signer.GetPublicKey()))

	_, err = NewPublicKeyFactory().FromBytes([]byte("garbage"))
	require.Error(t, err)

	sig, err := NewSignatureFactory().FromBytes([]byte{1, 2, 3})
	require.NoError(t, err)
	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
}
