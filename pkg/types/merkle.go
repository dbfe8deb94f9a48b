package types

import (
	"encoding/binary"
	"math/bits"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// Merkle tree hash prefixes. Leaves and interior nodes are
// domain-separated so a proof for one can never be replayed as the other.
const (
	leafHashPrefix = 0x00
	nodeHashPrefix = 0x01
)

// Precomputed leaf hashes shared by all standard v1 addresses (one
// ed25519 key, one signature required, no timelock).
var (
	standardTimelockLeaf = Hash256{
		0x51, 0x87, 0xb7, 0xa8, 0x02, 0x1b, 0xf4, 0xf2, 0xc0, 0x04, 0xea, 0x3a, 0x54, 0xcf, 0xec, 0xe1,
		0x75, 0x4f, 0x11, 0xc7, 0x62, 0x4d, 0x23, 0x63, 0xc7, 0xf4, 0xcf, 0x4f, 0xdd, 0xd1, 0x44, 0x1e,
	}
	standardSigsRequiredLeaf = Hash256{
		0xb3, 0x60, 0x10, 0xeb, 0x28, 0x5c, 0x15, 0x4a, 0x8c, 0xd6, 0x30, 0x84, 0xac, 0xbe, 0x7e, 0xac,
		0x0c, 0x4d, 0x62, 0x5a, 0xb4, 0xe1, 0xa7, 0x6e, 0x62, 0x4a, 0x87, 0x98, 0xcb, 0x63, 0x49, 0x7b,
	}
)

// An accumulator computes the Merkle root of a sequence of leaves without
// retaining the full tree. It maintains one perfect subtree root per
// height; the bit pattern of numLeaves determines which heights are
// occupied.
type accumulator struct {
	trees     [64]Hash256
	numLeaves uint64
}

func (acc *accumulator) hasTreeAtHeight(height int) bool {
	return acc.numLeaves&(1<<height) != 0
}

func (acc *accumulator) addLeaf(h Hash256) {
	i := 0
	for ; acc.hasTreeAtHeight(i); i++ {
		h = nodeHash(acc.trees[i], h)
	}
	acc.trees[i] = h
	acc.numLeaves++
}

func (acc *accumulator) root() Hash256 {
	i := bits.TrailingZeros64(acc.numLeaves)
	if i == 64 {
		return Hash256{}
	}
	root := acc.trees[i]
	for i++; i < 64; i++ {
		if acc.hasTreeAtHeight(i) {
			root = nodeHash(acc.trees[i], root)
		}
	}
	return root
}

func nodeHash(left, right Hash256) Hash256 {
	buf := make([]byte, 0, 1+32+32)
	buf = append(buf, nodeHashPrefix)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return encoding.HashBytes(buf)
}

func timelockLeaf(timelock uint64) Hash256 {
	var buf [9]byte
	buf[0] = leafHashPrefix
	binary.LittleEndian.PutUint64(buf[1:], timelock)
	return encoding.HashBytes(buf[:])
}

func sigsRequiredLeaf(sigsRequired uint64) Hash256 {
	var buf [9]byte
	buf[0] = leafHashPrefix
	binary.LittleEndian.PutUint64(buf[1:], sigsRequired)
	return encoding.HashBytes(buf[:])
}

// publicKeyLeaf hashes the full binary form of an unlock key: the
// 16-byte algorithm specifier, the key length, and the key itself.
func publicKeyLeaf(uk UnlockKey) Hash256 {
	buf := make([]byte, 0, 1+16+8+len(uk.Key))
	buf = append(buf, leafHashPrefix)
	buf = append(buf, uk.Algorithm[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(uk.Key)))
	buf = append(buf, uk.Key...)
	return encoding.HashBytes(buf)
}

// StandardUnlockHash returns the v1 unlock hash of a standard set of
// unlock conditions on pk. The tree shape is fixed:
//
//	           ┌─────────┴──────────┐
//	     ┌─────┴─────┐              │
//	  timelock     pubkey     sigsrequired
//
// so the timelock and sigsrequired leaves are precomputed.
func StandardUnlockHash(pk PublicKey) Hash256 {
	pkLeaf := publicKeyLeaf(Ed25519UnlockKey(pk))
	return nodeHash(nodeHash(standardTimelockLeaf, pkLeaf), standardSigsRequiredLeaf)
}

// UnlockHash returns the v1 unlock hash of uc, the Merkle root over its
// timelock, unlock keys, and required signature count.
func (uc UnlockConditions) UnlockHash() Hash256 {
	// almost all unlock conditions are standard, so optimize for that case
	if uc.Timelock == 0 && len(uc.PublicKeys) == 1 && uc.SignaturesRequired == 1 &&
		uc.PublicKeys[0].Algorithm == SpecifierEd25519 && len(uc.PublicKeys[0].Key) == 32 {
		var pk PublicKey
		copy(pk[:], uc.PublicKeys[0].Key)
		return StandardUnlockHash(pk)
	}

	var acc accumulator
	acc.addLeaf(timelockLeaf(uc.Timelock))
	for _, uk := range uc.PublicKeys {
		acc.addLeaf(publicKeyLeaf(uk))
	}
	acc.addLeaf(sigsRequiredLeaf(uc.SignaturesRequired))
	return acc.root()
}

// Address returns the v1 address derived from uc.
func (uc UnlockConditions) Address() Address {
	return Address(uc.UnlockHash())
}

// StandardAddressV1 returns the v1 address of a standard set of unlock
// conditions on pk.
func StandardAddressV1(pk PublicKey) Address {
	return Address(StandardUnlockHash(pk))
}
