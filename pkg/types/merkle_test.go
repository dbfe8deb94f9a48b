package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPublicKey(t *testing.T, s string) PublicKey {
	t.Helper()
	pk, err := ParsePublicKey("ed25519:" + s)
	require.NoError(t, err)
	return pk
}

func TestTimelockLeaf(t *testing.T) {
	assert.Equal(t, standardTimelockLeaf, timelockLeaf(0))
}

func TestSigsRequiredLeaf(t *testing.T) {
	assert.Equal(t, standardSigsRequiredLeaf, sigsRequiredLeaf(1))
}

func TestPublicKeyLeaf(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	want, err := ParseHash256("21ce940603a2ee3a283685f6bfb4b122254894fd1ed3eb59434aadbf00c75d5b")
	require.NoError(t, err)
	assert.Equal(t, want, publicKeyLeaf(Ed25519UnlockKey(pk)))
}

func TestStandardUnlockHash(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	want, err := ParseHash256("72b0762b382d4c251af5ae25b6777d908726d75962e5224f98d7f619bb39515d")
	require.NoError(t, err)
	assert.Equal(t, want, StandardUnlockHash(pk))

	// the accumulator path must agree with the precomputed-tree fast path
	uc := StandardUnlockConditions(pk)
	assert.Equal(t, want, uc.UnlockHash())
}

func TestStandardAddressV1(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	assert.Equal(t,
		"72b0762b382d4c251af5ae25b6777d908726d75962e5224f98d7f619bb39515dd64b9a56043a",
		StandardAddressV1(pk).String())
}

func TestMultisigUnlockHash2of2(t *testing.T) {
	pk1 := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	pk2 := testPublicKey(t, "0101010000000000000000000000000000000000000000000000000000000000")

	uc := MultisigUnlockConditions([]PublicKey{pk1, pk2}, 0, 2)
	want, err := ParseHash256("1e94357817d236167e54970a8c08bbd41b37bfceeeb52f6c1ce6dd01d50ea1e7")
	require.NoError(t, err)
	assert.Equal(t, want, uc.UnlockHash())
}

func TestMultisigUnlockHash1of2(t *testing.T) {
	pk1 := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	pk2 := testPublicKey(t, "0101010000000000000000000000000000000000000000000000000000000000")

	uc := MultisigUnlockConditions([]PublicKey{pk1, pk2}, 0, 1)
	want, err := ParseHash256("d7f84e3423da09d111a17f64290c8d05e1cbe4cab2b6bed49e3a4d2f659f0585")
	require.NoError(t, err)
	assert.Equal(t, want, uc.UnlockHash())
}
