package builder

import (
	"crypto/sha256"

	"github.com/suffix-labs/sia-wallet/pkg/types"
)

// A Signer produces signatures over 32-byte digests on behalf of the
// keys it holds. Implementations may be in-memory keyrings, hardware
// devices, or remote services.
type Signer interface {
	// SignHash signs h with the private key corresponding to pk. It
	// returns a KeyNotFoundError if the signer does not hold that key,
	// or a SignerUnavailableError if the signer cannot be reached.
	SignHash(h types.Hash256, pk types.PublicKey) (types.Signature, error)
}

// A PreimageSource reveals hash-lock preimages. The secret holder of an
// atomic swap implements this for the swap's secret hash.
type PreimageSource interface {
	// RevealPreimage returns the preimage whose SHA-256 digest is h. It
	// returns a PreimageNotFoundError if the preimage is unknown.
	RevealPreimage(h types.Hash256) (types.Preimage, error)
}

// A KeyringSigner is an in-memory Signer and PreimageSource backed by
// plain maps. Keys and preimages are indexed by the values the policy
// tree commits to, so signing never requires a search.
type KeyringSigner struct {
	keys      map[types.PublicKey]types.PrivateKey
	preimages map[types.Hash256]types.Preimage
}

// NewKeyringSigner returns an empty KeyringSigner.
func NewKeyringSigner() *KeyringSigner {
	return &KeyringSigner{
		keys:      make(map[types.PublicKey]types.PrivateKey),
		preimages: make(map[types.Hash256]types.Preimage),
	}
}

// AddKey adds a private key to the keyring.
func (ks *KeyringSigner) AddKey(priv types.PrivateKey) *KeyringSigner {
	ks.keys[priv.PublicKey()] = priv
	return ks
}

// AddPreimage adds a hash-lock preimage to the keyring, indexed by its
// SHA-256 digest.
func (ks *KeyringSigner) AddPreimage(pi types.Preimage) *KeyringSigner {
	ks.preimages[sha256.Sum256(pi[:])] = pi
	return ks
}

// SignHash implements Signer.
func (ks *KeyringSigner) SignHash(h types.Hash256, pk types.PublicKey) (types.Signature, error) {
	priv, ok := ks.keys[pk]
	if !ok {
		return types.Signature{}, &KeyNotFoundError{PublicKey: pk}
	}
	return priv.SignHash(h), nil
}

// RevealPreimage implements PreimageSource.
func (ks *KeyringSigner) RevealPreimage(h types.Hash256) (types.Preimage, error) {
	pi, ok := ks.preimages[h]
	if !ok {
		return types.Preimage{}, &PreimageNotFoundError{Hash: h}
	}
	return pi, nil
}
