package proof

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigest_NewFromBytes(t *testing.T) {
	d := NewDigestFromBytes([]byte{1, 2, 3})

	require.Equal(t, byte(1), d[0])
	require.Equal(t, byte(0), d[31])

	// Extra bytes are ignored.
	long := NewDigestFromBytes(make([]byte, 64))
	require.Equal(t, Digest{}, long)
}

func TestDigest_Bytes(t *testing.T) {
	d := NewDigestFromBytes([]byte{1, 2, 3})

	data := d.Bytes()
	require.Len(t, data, DigestLength)

	// The slice is a copy.
	data[0] = 0xff
	require.Equal(t, byte(1), d[0])
}

func TestDigest_Equal(t *testing.T) {
	a := NewDigestFromBytes([]byte{1})
	b := NewDigestFromBytes([]byte{1})
	c := NewDigestFromBytes([]byte{2})

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestDigest_String(t *testing.T) {
	d := NewDigestFromBytes([]byte{0xde, 0xad, 0xbe, 0xef})

	require.Equal(t, "deadbeef00000000", d.String())
}

func TestField_Uint64(t *testing.T) {
	f := NewFieldFromUint64(42)

	require.Equal(t, uint64(42), f.Uint64())
	require.Equal(t, int64(42), f.BigInt().Int64())

	zero := Field{}
	require.Equal(t, uint64(0), zero.Uint64())
}

func TestStatement_Equal(t *testing.T) {
	st := Statement{
		TransactionDigest:   NewDigestFromBytes([]byte{1}),
		AccountUpdateDigest: NewDigestFromBytes([]byte{2}),
	}

	require.True(t, st.Equal(st))

	other := st
	other.TransactionDigest = NewDigestFromBytes([]byte{3})
	require.False(t, st.Equal(other))

	other = st
	other.AccountUpdateDigest = NewDigestFromBytes([]byte{3})
	require.False(t, st.Equal(other))
}
