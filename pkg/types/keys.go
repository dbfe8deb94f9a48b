package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// A PublicKey is the public half of an ed25519 keypair.
type PublicKey [32]byte

// NewPublicKey validates b as a canonical ed25519 public key and returns
// it as a PublicKey. Non-canonical curve points are rejected so they can
// never enter a policy or an address.
func NewPublicKey(b []byte) (PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("invalid public key length %d", len(b))
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key: %w", err)
	}
	var pk PublicKey
	copy(pk[:], b)
	return pk, nil
}

// VerifyHash verifies that s is a valid signature of h by pk. Malformed
// signatures verify as false, never panic.
func (pk PublicKey) VerifyHash(h Hash256, s Signature) bool {
	return ed25519.Verify(pk[:], h[:], s[:])
}

// StandardAddress returns the v2 address derived from a single-key
// spend policy on pk.
func (pk PublicKey) StandardAddress() Address {
	return PolicyPublicKey(pk).Address()
}

// String implements fmt.Stringer. Public keys are rendered in the
// walletd "ed25519:<hex>" form.
func (pk PublicKey) String() string {
	return "ed25519:" + hex.EncodeToString(pk[:])
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) { return []byte(pk.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Keys are validated
// with the same canonical-point check as NewPublicKey, so JSON and text
// inputs cannot smuggle in an invalid point.
func (pk *PublicKey) UnmarshalText(b []byte) error {
	s := string(b)
	rest, ok := strings.CutPrefix(s, "ed25519:")
	if !ok {
		return fmt.Errorf("decoding PublicKey: missing ed25519: prefix in %q", s)
	}
	if err := decodeHexArray(pk[:], []byte(rest), "PublicKey"); err != nil {
		return err
	}
	if _, err := NewPublicKey(pk[:]); err != nil {
		return fmt.Errorf("decoding PublicKey: %w", err)
	}
	return nil
}

// ParsePublicKey parses a public key from its "ed25519:<hex>" form.
func ParsePublicKey(s string) (pk PublicKey, err error) {
	err = pk.UnmarshalText([]byte(s))
	return
}

// EncodeTo implements encoding.EncoderTo.
func (pk PublicKey) EncodeTo(e *encoding.Encoder) { e.Write(pk[:]) }

// DecodeFrom implements encoding.DecoderFrom.
func (pk *PublicKey) DecodeFrom(d *encoding.Decoder) { d.ReadFull(pk[:]) }

// A PrivateKey is the private half of an ed25519 keypair.
type PrivateKey []byte

// PublicKey returns the PublicKey corresponding to priv.
func (priv PrivateKey) PublicKey() (pk PublicKey) {
	copy(pk[:], ed25519.PrivateKey(priv).Public().(ed25519.PublicKey))
	return
}

// SignHash signs h with priv, producing a 64-byte Signature.
func (priv PrivateKey) SignHash(h Hash256) (s Signature) {
	copy(s[:], ed25519.Sign(ed25519.PrivateKey(priv), h[:]))
	return
}

// NewPrivateKeyFromSeed derives a private key from a 32-byte seed.
func NewPrivateKeyFromSeed(seed []byte) (PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d", len(seed))
	}
	return PrivateKey(ed25519.NewKeyFromSeed(seed)), nil
}

// GeneratePrivateKey creates a new private key from a secure entropy
// source.
func GeneratePrivateKey() PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err) // only possible if the entropy source fails
	}
	return PrivateKey(priv)
}

// A Signature is an ed25519 signature over a 32-byte digest.
type Signature [64]byte

// String implements fmt.Stringer.
func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(b []byte) error {
	return decodeHexArray(s[:], b, "Signature")
}

// ParseSignature parses a signature from its hex representation.
func ParseSignature(str string) (s Signature, err error) {
	err = s.UnmarshalText([]byte(str))
	return
}

// EncodeTo implements encoding.EncoderTo.
func (s Signature) EncodeTo(e *encoding.Encoder) { e.Write(s[:]) }

// DecodeFrom implements encoding.DecoderFrom.
func (s *Signature) DecodeFrom(d *encoding.Decoder) { d.ReadFull(s[:]) }
