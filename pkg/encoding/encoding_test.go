package encoding

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// hashOf runs fn against a fresh Hasher and returns the hex digest.
func hashOf(t *testing.T, fn func(e *Encoder)) string {
	t.Helper()
	h := NewHasher()
	fn(h.E)
	sum := h.Sum()
	return hex.EncodeToString(sum[:])
}

func TestHasherEmpty(t *testing.T) {
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		hashOf(t, func(e *Encoder) {}))
}

func TestHasherWriteBytes(t *testing.T) {
	assert.Equal(t,
		"d4a72b52e2e1f40e20ee40ea6d5080a1b1f76164786defbb7691a4427f3388f5",
		hashOf(t, func(e *Encoder) { e.WriteBytes([]byte{1, 2, 3, 4}) }))
}

func TestHasherWriteUint8(t *testing.T) {
	assert.Equal(t,
		"ee155ace9c40292074cb6aff8c9ccdd273c81648ff1149ef36bcea6ebb8a3e25",
		hashOf(t, func(e *Encoder) { e.WriteUint8(1) }))
}

func TestHasherWriteUint64(t *testing.T) {
	assert.Equal(t,
		"1dbd7d0b561a41d23c2a469ad42fbd70d5438bae826f6fd607413190c37c363b",
		hashOf(t, func(e *Encoder) { e.WriteUint64(1) }))
}

func TestHasherWriteDistinguisher(t *testing.T) {
	assert.Equal(t,
		"25fb524721bf98a9a1233a53c40e7e198971b003bf23c24f59d547a1bb837f9c",
		hashOf(t, func(e *Encoder) { e.WriteDistinguisher("test") }))
}

func TestHasherWriteBool(t *testing.T) {
	assert.Equal(t,
		"ee155ace9c40292074cb6aff8c9ccdd273c81648ff1149ef36bcea6ebb8a3e25",
		hashOf(t, func(e *Encoder) { e.WriteBool(true) }))
	assert.Equal(t,
		"03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314",
		hashOf(t, func(e *Encoder) { e.WriteBool(false) }))
}

func TestHasherReset(t *testing.T) {
	h := NewHasher()
	h.E.WriteBool(true)
	sum := h.Sum()
	assert.Equal(t, "ee155ace9c40292074cb6aff8c9ccdd273c81648ff1149ef36bcea6ebb8a3e25", hex.EncodeToString(sum[:]))

	h.Reset()
	h.E.WriteBool(false)
	sum = h.Sum()
	assert.Equal(t, "03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314", hex.EncodeToString(sum[:]))
}

func TestHasherComplex(t *testing.T) {
	assert.Equal(t,
		"b66d7a9bef9fb303fe0e41f6b5c5af410303e428c4ff9231f6eb381248693221",
		hashOf(t, func(e *Encoder) {
			e.WriteDistinguisher("test")
			e.WriteBool(true)
			e.WriteUint8(1)
			e.WriteBytes([]byte{1, 2, 3, 4})
		}))
}

func TestEncoderWireFormat(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteUint64(1)
	e.WriteBytes([]byte{0xaa, 0xbb})
	e.WriteString("hi")
	e.WriteBool(true)
	require.NoError(t, e.Flush())

	want := mustHex(t, "0100000000000000"+"0200000000000000aabb"+"02000000000000006869"+"01")
	assert.Equal(t, want, buf.Bytes())
}

func TestDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteUint64(42)
	e.WriteBytes([]byte("hello"))
	e.WriteBool(false)
	e.WriteUint8(7)
	require.NoError(t, e.Flush())

	d := NewBufDecoder(buf.Bytes())
	assert.Equal(t, uint64(42), d.ReadUint64())
	assert.Equal(t, []byte("hello"), d.ReadBytes())
	assert.False(t, d.ReadBool())
	assert.Equal(t, uint8(7), d.ReadUint8())
	require.NoError(t, d.Err())
}

func TestDecoderTruncated(t *testing.T) {
	d := NewBufDecoder([]byte{1, 2, 3})
	d.ReadUint64()
	require.Error(t, d.Err())

	var malformed *MalformedEncodingError
	require.ErrorAs(t, d.Err(), &malformed)
}

func TestDecoderOversizedPrefix(t *testing.T) {
	// prefix claims 2^32 elements but the stream ends immediately
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteUint64(1 << 32)
	require.NoError(t, e.Flush())

	d := NewBufDecoder(buf.Bytes())
	assert.Equal(t, 0, d.ReadPrefix())
	require.Error(t, d.Err())
}

func TestDecoderInvalidBool(t *testing.T) {
	d := NewBufDecoder([]byte{2})
	d.ReadBool()
	require.Error(t, d.Err())
}

func TestDecoderErrIsSticky(t *testing.T) {
	d := NewBufDecoder([]byte{})
	d.ReadUint64()
	first := d.Err()
	require.Error(t, first)
	d.ReadUint64()
	assert.Equal(t, first, d.Err())
}
