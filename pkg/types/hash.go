// Package types defines the core data types of the Sia protocol: hashes,
// addresses, currency amounts, keys and signatures, spend policies, and
// the v1/v2 transaction model. All types carry their canonical binary
// encoding (used for consensus hashing and the wire format) and their
// walletd-compatible JSON form; the two must never be conflated.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// A Hash256 is a generic 256-bit cryptographic hash.
type Hash256 [32]byte

// A TransactionID uniquely identifies a transaction.
type TransactionID Hash256

// A BlockID uniquely identifies a block.
type BlockID Hash256

// A SiacoinOutputID uniquely identifies a siacoin output.
type SiacoinOutputID Hash256

// A SiafundOutputID uniquely identifies a siafund output.
type SiafundOutputID Hash256

// A FileContractID uniquely identifies a file contract.
type FileContractID Hash256

// A ChainIndex pairs a block's height with its ID.
type ChainIndex struct {
	Height uint64  `json:"height"`
	ID     BlockID `json:"id"`
}

// A Specifier is a fixed-size, 0-padded ASCII identifier.
type Specifier [16]byte

// Specifiers used by the protocol.
var (
	SpecifierEd25519    = NewSpecifier("ed25519")
	SpecifierSiacoin    = NewSpecifier("siacoins")
	SpecifierSiafund    = NewSpecifier("siafunds")
	SpecifierEntropy    = NewSpecifier("entropy")
	SpecifierFoundation = NewSpecifier("foundation")
)

// NewSpecifier returns a Specifier containing the provided name.
func NewSpecifier(name string) (s Specifier) {
	copy(s[:], name)
	return
}

// String implements fmt.Stringer.
func (s Specifier) String() string {
	return string(bytes.Trim(s[:], "\x00"))
}

// EncodeTo implements encoding.EncoderTo.
func (s Specifier) EncodeTo(e *encoding.Encoder) { e.Write(s[:]) }

// DecodeFrom implements encoding.DecoderFrom.
func (s *Specifier) DecodeFrom(d *encoding.Decoder) { d.ReadFull(s[:]) }

// EncodeTo implements encoding.EncoderTo.
func (h Hash256) EncodeTo(e *encoding.Encoder) { e.Write(h[:]) }

// DecodeFrom implements encoding.DecoderFrom.
func (h *Hash256) DecodeFrom(d *encoding.Decoder) { d.ReadFull(h[:]) }

// String implements fmt.Stringer.
func (h Hash256) String() string { return hex.EncodeToString(h[:]) }

// MarshalText implements encoding.TextMarshaler.
func (h Hash256) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash256) UnmarshalText(b []byte) error {
	return decodeHexArray(h[:], b, "Hash256")
}

// ParseHash256 parses a Hash256 from its hex representation.
func ParseHash256(s string) (h Hash256, err error) {
	err = h.UnmarshalText([]byte(s))
	return
}

func decodeHexArray(dst []byte, src []byte, typ string) error {
	if len(src) != len(dst)*2 {
		return fmt.Errorf("decoding %v: wrong length (%v, expected %v)", typ, len(src), len(dst)*2)
	}
	if _, err := hex.Decode(dst, src); err != nil {
		return fmt.Errorf("decoding %v: %w", typ, err)
	}
	return nil
}

// EncodeTo implements encoding.EncoderTo.
func (txid TransactionID) EncodeTo(e *encoding.Encoder) { Hash256(txid).EncodeTo(e) }

// DecodeFrom implements encoding.DecoderFrom.
func (txid *TransactionID) DecodeFrom(d *encoding.Decoder) { (*Hash256)(txid).DecodeFrom(d) }

// String implements fmt.Stringer.
func (txid TransactionID) String() string { return Hash256(txid).String() }

// MarshalText implements encoding.TextMarshaler.
func (txid TransactionID) MarshalText() ([]byte, error) { return Hash256(txid).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (txid *TransactionID) UnmarshalText(b []byte) error { return (*Hash256)(txid).UnmarshalText(b) }

// EncodeTo implements encoding.EncoderTo.
func (id BlockID) EncodeTo(e *encoding.Encoder) { Hash256(id).EncodeTo(e) }

// DecodeFrom implements encoding.DecoderFrom.
func (id *BlockID) DecodeFrom(d *encoding.Decoder) { (*Hash256)(id).DecodeFrom(d) }

// String implements fmt.Stringer.
func (id BlockID) String() string { return Hash256(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id BlockID) MarshalText() ([]byte, error) { return Hash256(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *BlockID) UnmarshalText(b []byte) error { return (*Hash256)(id).UnmarshalText(b) }

// EncodeTo implements encoding.EncoderTo.
func (id SiacoinOutputID) EncodeTo(e *encoding.Encoder) { Hash256(id).EncodeTo(e) }

// DecodeFrom implements encoding.DecoderFrom.
func (id *SiacoinOutputID) DecodeFrom(d *encoding.Decoder) { (*Hash256)(id).DecodeFrom(d) }

// String implements fmt.Stringer.
func (id SiacoinOutputID) String() string { return Hash256(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id SiacoinOutputID) MarshalText() ([]byte, error) { return Hash256(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SiacoinOutputID) UnmarshalText(b []byte) error { return (*Hash256)(id).UnmarshalText(b) }

// EncodeTo implements encoding.EncoderTo.
func (id SiafundOutputID) EncodeTo(e *encoding.Encoder) { Hash256(id).EncodeTo(e) }

// DecodeFrom implements encoding.DecoderFrom.
func (id *SiafundOutputID) DecodeFrom(d *encoding.Decoder) { (*Hash256)(id).DecodeFrom(d) }

// String implements fmt.Stringer.
func (id SiafundOutputID) String() string { return Hash256(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id SiafundOutputID) MarshalText() ([]byte, error) { return Hash256(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SiafundOutputID) UnmarshalText(b []byte) error { return (*Hash256)(id).UnmarshalText(b) }

// EncodeTo implements encoding.EncoderTo.
func (fcid FileContractID) EncodeTo(e *encoding.Encoder) { Hash256(fcid).EncodeTo(e) }

// DecodeFrom implements encoding.DecoderFrom.
func (fcid *FileContractID) DecodeFrom(d *encoding.Decoder) { (*Hash256)(fcid).DecodeFrom(d) }

// String implements fmt.Stringer.
func (fcid FileContractID) String() string { return Hash256(fcid).String() }

// MarshalText implements encoding.TextMarshaler.
func (fcid FileContractID) MarshalText() ([]byte, error) { return Hash256(fcid).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (fcid *FileContractID) UnmarshalText(b []byte) error { return (*Hash256)(fcid).UnmarshalText(b) }

// EncodeTo implements encoding.EncoderTo.
func (ci ChainIndex) EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(ci.Height)
	ci.ID.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (ci *ChainIndex) DecodeFrom(d *encoding.Decoder) {
	ci.Height = d.ReadUint64()
	ci.ID.DecodeFrom(d)
}

// String implements fmt.Stringer.
func (ci ChainIndex) String() string {
	return fmt.Sprintf("%d::%s", ci.Height, ci.ID)
}

// An Address is the hash identifying the spend conditions of an output.
// Its string form appends a 6-byte BLAKE2b checksum to guard against
// transcription errors.
type Address Hash256

// VoidAddress is an address whose signing key does not exist. Sending
// coins to this address ensures they will never be recoverable by anyone.
var VoidAddress Address

// EncodeTo implements encoding.EncoderTo.
func (a Address) EncodeTo(e *encoding.Encoder) { Hash256(a).EncodeTo(e) }

// DecodeFrom implements encoding.DecoderFrom.
func (a *Address) DecodeFrom(d *encoding.Decoder) { (*Hash256)(a).DecodeFrom(d) }

// String returns the address with its checksum, hex-encoded.
func (a Address) String() string {
	checksum := encoding.HashBytes(a[:])
	return hex.EncodeToString(a[:]) + hex.EncodeToString(checksum[:6])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(b []byte) error {
	withChecksum := make([]byte, 32+6)
	if err := decodeHexArray(withChecksum, b, "Address"); err != nil {
		return err
	}
	checksum := encoding.HashBytes(withChecksum[:32])
	if !bytes.Equal(checksum[:6], withChecksum[32:]) {
		return fmt.Errorf("decoding Address: bad checksum")
	}
	copy(a[:], withChecksum[:32])
	return nil
}

// ParseAddress parses an address from its checksummed hex representation.
func ParseAddress(s string) (a Address, err error) {
	err = a.UnmarshalText([]byte(s))
	return
}
