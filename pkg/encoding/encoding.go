// Package encoding implements the canonical binary codec used throughout
// the Sia protocol. Every consensus object is encoded with the same small
// set of rules: fixed-width integers are little-endian, variable-length
// sequences carry a uint64 length prefix, and fixed-width byte buffers
// (hashes, keys, signatures) are written raw with no prefix. The encoding
// of a value is unique; hashes and signatures are computed over these
// exact bytes, so any deviation produces a transaction the network
// rejects.
package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/minio/blake2b-simd"
)

// HashSize is the size of a BLAKE2b-256 digest in bytes.
const HashSize = 32

// An EncoderTo can encode itself to an Encoder.
type EncoderTo interface {
	EncodeTo(e *Encoder)
}

// A DecoderFrom can decode itself from a Decoder.
type DecoderFrom interface {
	DecodeFrom(d *Decoder)
}

// An Encoder writes canonically-encoded objects to an underlying stream.
// Write errors are sticky: the first error encountered is retained and
// reported by Flush, and subsequent writes are no-ops.
type Encoder struct {
	w   io.Writer
	buf [1024]byte
	n   int
	err error
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Flush writes any pending data to the underlying stream. It returns the
// first error encountered by the Encoder.
func (e *Encoder) Flush() error {
	if e.err == nil && e.n > 0 {
		_, e.err = e.w.Write(e.buf[:e.n])
		e.n = 0
	}
	return e.err
}

// Write implements io.Writer.
func (e *Encoder) Write(p []byte) (int, error) {
	lenp := len(p)
	for e.err == nil && len(p) > 0 {
		if e.n == len(e.buf) {
			e.Flush()
		}
		c := copy(e.buf[e.n:], p)
		e.n += c
		p = p[c:]
	}
	return lenp, e.err
}

// WriteBool writes a bool value as a single byte.
func (e *Encoder) WriteBool(b bool) {
	var buf [1]byte
	if b {
		buf[0] = 1
	}
	e.Write(buf[:])
}

// WriteUint8 writes a uint8 value.
func (e *Encoder) WriteUint8(u uint8) {
	e.Write([]byte{u})
}

// WriteUint64 writes a uint64 value in little-endian order.
func (e *Encoder) WriteUint64(u uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	e.Write(buf[:])
}

// WritePrefix writes a length prefix.
func (e *Encoder) WritePrefix(i int) {
	e.WriteUint64(uint64(i))
}

// WriteBytes writes the length of b, followed by b itself.
func (e *Encoder) WriteBytes(b []byte) {
	e.WritePrefix(len(b))
	e.Write(b)
}

// WriteString writes the length of s, followed by its UTF-8 bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteBytes([]byte(s))
}

// WriteDistinguisher writes the domain-separation tag for hashing
// context tag, as the ASCII bytes of "sia/" + tag + "|". Every hash the
// protocol computes for a distinct purpose begins with a distinct
// distinguisher so that a digest produced for one purpose can never be
// replayed as proof for another.
func (e *Encoder) WriteDistinguisher(tag string) {
	e.Write([]byte("sia/" + tag + "|"))
}

// A Decoder reads values from an underlying stream. Callers MUST check
// (via Err) that decoding did not produce an error before using any
// decoded values.
type Decoder struct {
	lr  io.LimitedReader
	buf [64]byte
	err error
}

// NewDecoder returns a Decoder that reads from lr.
func NewDecoder(lr io.LimitedReader) *Decoder {
	return &Decoder{lr: lr}
}

// NewBufDecoder returns a Decoder for the provided byte slice.
func NewBufDecoder(buf []byte) *Decoder {
	return NewDecoder(io.LimitedReader{
		R: bytes.NewReader(buf),
		N: int64(len(buf)),
	})
}

// SetErr sets the Decoder's error state, if it is not already set. SetErr
// should only be called from DecodeFrom implementations.
func (d *Decoder) SetErr(err error) {
	if err != nil && d.err == nil {
		d.err = &MalformedEncodingError{Cause: err}
	}
}

// Err returns the first error encountered during decoding.
func (d *Decoder) Err() error { return d.err }

// Read implements io.Reader. It always returns an error if fewer than
// len(p) bytes were read.
func (d *Decoder) Read(p []byte) (int, error) {
	n := 0
	for len(p[n:]) > 0 && d.err == nil {
		want := len(p[n:])
		if want > len(d.buf) {
			want = len(d.buf)
		}
		read, err := io.ReadFull(&d.lr, d.buf[:want])
		if err != nil {
			d.SetErr(err)
		}
		n += copy(p[n:], d.buf[:read])
	}
	return n, d.err
}

// ReadFull reads len(b) bytes into b.
func (d *Decoder) ReadFull(b []byte) {
	if d.err != nil {
		return
	}
	if _, err := io.ReadFull(d, b); err != nil {
		d.SetErr(err)
	}
}

// ReadBool reads a bool value.
func (d *Decoder) ReadBool() bool {
	var buf [1]byte
	d.ReadFull(buf[:])
	if buf[0] > 1 {
		d.SetErr(fmt.Errorf("invalid bool value (%v)", buf[0]))
	}
	return buf[0] == 1
}

// ReadUint8 reads a uint8 value.
func (d *Decoder) ReadUint8() uint8 {
	var buf [1]byte
	d.ReadFull(buf[:])
	return buf[0]
}

// ReadUint64 reads a little-endian uint64 value.
func (d *Decoder) ReadUint64() uint64 {
	var buf [8]byte
	d.ReadFull(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// ReadPrefix reads a length prefix. If the prefix exceeds the number of
// bytes remaining in the stream, ReadPrefix sets d's error state and
// returns 0.
func (d *Decoder) ReadPrefix() int {
	n := d.ReadUint64()
	if n > uint64(d.lr.N) {
		d.SetErr(fmt.Errorf("length prefix (%v elems) exceeds remaining stream length (%v bytes)", n, d.lr.N))
		return 0
	}
	return int(n)
}

// ReadBytes reads a length-prefixed byte slice.
func (d *Decoder) ReadBytes() []byte {
	b := make([]byte, d.ReadPrefix())
	d.ReadFull(b)
	return b
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() string {
	return string(d.ReadBytes())
}

// A MalformedEncodingError is returned when a Decoder encounters input
// that does not conform to the canonical encoding: truncated streams,
// out-of-range length prefixes, or values that have no canonical
// representation.
type MalformedEncodingError struct {
	Cause error
}

// Error implements the error interface.
func (e *MalformedEncodingError) Error() string {
	return fmt.Sprintf("malformed encoding: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *MalformedEncodingError) Unwrap() error { return e.Cause }

// A Hasher streams objects into an instance of the BLAKE2b-256 hash
// function. The Encoder and hash state are reused between calls to Sum,
// making Hasher cheaper than HashObject for computing many digests.
type Hasher struct {
	h hash.Hash
	E *Encoder
}

// Reset resets the underlying hash state.
func (h *Hasher) Reset() { h.h.Reset() }

// WriteDistinguisher writes a distinguisher to the underlying hash state.
func (h *Hasher) WriteDistinguisher(tag string) { h.E.WriteDistinguisher(tag) }

// Sum returns the digest of the objects written to the Hasher.
func (h *Hasher) Sum() (sum [HashSize]byte) {
	_ = h.E.Flush() // no error possible
	h.h.Sum(sum[:0])
	return
}

// NewHasher returns a new Hasher instance.
func NewHasher() *Hasher {
	h := blake2b.New256()
	return &Hasher{h, NewEncoder(h)}
}

// HashObject returns the BLAKE2b-256 digest of v's canonical encoding.
func HashObject(v EncoderTo) [HashSize]byte {
	h := NewHasher()
	v.EncodeTo(h.E)
	return h.Sum()
}

// HashBytes returns the BLAKE2b-256 digest of b.
func HashBytes(b []byte) (sum [HashSize]byte) {
	h := blake2b.New256()
	h.Write(b)
	h.Sum(sum[:0])
	return
}

// EncodeSlice writes a length-prefixed slice of encodable values.
func EncodeSlice[T EncoderTo](e *Encoder, s []T) {
	e.WritePrefix(len(s))
	for i := range s {
		s[i].EncodeTo(e)
	}
}

// DecodeSlice reads a length-prefixed slice of decodable values.
func DecodeSlice[T any, TP interface {
	*T
	DecoderFrom
}](d *Decoder, s *[]T) {
	*s = make([]T, d.ReadPrefix())
	for i := range *s {
		TP(&(*s)[i]).DecodeFrom(d)
	}
}
