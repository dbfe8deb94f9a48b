package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

func testSignature(t *testing.T, s string) Signature {
	t.Helper()
	sig, err := ParseSignature(s)
	require.NoError(t, err)
	return sig
}

func testPreimage(b ...byte) (pi Preimage) {
	copy(pi[:], b)
	return
}

func TestPolicyThresholdRejectsUnsatisfiable(t *testing.T) {
	_, err := PolicyThreshold(2, []SpendPolicy{PolicyAbove(1)})
	var ipe *InvalidPolicyError
	require.ErrorAs(t, err, &ipe)

	p, err := PolicyThreshold(1, []SpendPolicy{PolicyAbove(1)})
	require.NoError(t, err)
	assert.IsType(t, PolicyTypeThreshold{}, p.Type)
}

func TestPolicyThresholdRejectsOversized(t *testing.T) {
	// the encoded child count is a single byte
	of := make([]SpendPolicy, 256)
	for i := range of {
		of[i] = PolicyAbove(uint64(i))
	}
	_, err := PolicyThreshold(1, of)
	var ipe *InvalidPolicyError
	require.ErrorAs(t, err, &ipe)

	_, err = PolicyThreshold(1, of[:255])
	require.NoError(t, err)
}

func TestPolicyRoundTrip(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	thresh, err := PolicyThreshold(2, []SpendPolicy{
		PolicyAbove(100),
		PolicyAfter(1600000000),
		PolicyPublicKey(pk),
		PolicyHash(Hash256{1}),
		PolicyOpaque(Address{2}),
		PolicyUnlockConditions(StandardUnlockConditions(pk)),
	})
	require.NoError(t, err)

	for _, p := range []SpendPolicy{
		PolicyAbove(42),
		PolicyAfter(77777777),
		PolicyPublicKey(pk),
		PolicyHash(Hash256{0xab}),
		PolicyOpaque(Address{0xcd}),
		PolicyUnlockConditions(MultisigUnlockConditions([]PublicKey{pk, pk}, 5, 2)),
		thresh,
		AnyoneCanSpend(),
	} {
		b := encodeToBytes(p.EncodeTo)
		var got SpendPolicy
		d := encoding.NewBufDecoder(b)
		got.DecodeFrom(d)
		require.NoError(t, d.Err(), p.String())
		assert.Equal(t, p.Address(), got.Address(), p.String())
		assert.Equal(t, b, encodeToBytes(got.EncodeTo), p.String())
	}
}

func TestPolicyDecodeUnknownOpcode(t *testing.T) {
	d := encoding.NewBufDecoder([]byte{policyVersion, 0xff})
	var p SpendPolicy
	p.DecodeFrom(d)
	assert.Error(t, d.Err())
}

func TestPolicyDecodeBadVersion(t *testing.T) {
	d := encoding.NewBufDecoder([]byte{2, opAbove, 0, 0, 0, 0, 0, 0, 0, 0})
	var p SpendPolicy
	p.DecodeFrom(d)
	assert.Error(t, d.Err())
}

func TestPolicyDecodeUnsatisfiableThreshold(t *testing.T) {
	var buf bytes.Buffer
	e := encoding.NewEncoder(&buf)
	e.WriteUint8(policyVersion)
	e.WriteUint8(opThreshold)
	e.WriteUint8(2) // n
	e.WriteUint8(1) // len(of)
	e.WriteUint8(opAbove)
	e.WriteUint64(1)
	require.NoError(t, e.Flush())

	d := encoding.NewBufDecoder(buf.Bytes())
	var p SpendPolicy
	p.DecodeFrom(d)
	assert.Error(t, d.Err())
}

func TestPolicyDecodeTooComplex(t *testing.T) {
	// a chain of single-child thresholds: small input, unbounded
	// recursion if the decoder does not cap tree size
	b := []byte{policyVersion}
	for i := 0; i < 2*maxPolicies; i++ {
		b = append(b, opThreshold, 0, 1)
	}
	b = append(b, opAbove, 0, 0, 0, 0, 0, 0, 0, 0)

	d := encoding.NewBufDecoder(b)
	var p SpendPolicy
	p.DecodeFrom(d)
	var mee *encoding.MalformedEncodingError
	require.ErrorAs(t, d.Err(), &mee)
}

func TestPublicKeyTextRejectsInvalidPoint(t *testing.T) {
	// y = 2 does not decompress to a curve point
	const bad = "ed25519:0200000000000000000000000000000000000000000000000000000000000000"
	_, err := ParsePublicKey(bad)
	require.Error(t, err)

	var pk PublicKey
	require.Error(t, json.Unmarshal([]byte(`"`+bad+`"`), &pk))
}

func TestPolicyJSONRoundTrip(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	thresh, err := PolicyThreshold(1, []SpendPolicy{
		PolicyPublicKey(pk),
		PolicyHash(Hash256{1, 2, 3}),
	})
	require.NoError(t, err)

	for _, p := range []SpendPolicy{
		PolicyAbove(42),
		PolicyAfter(77777777),
		PolicyPublicKey(pk),
		PolicyHash(Hash256{0xab}),
		PolicyOpaque(Address{0xcd}),
		PolicyUnlockConditions(StandardUnlockConditions(pk)),
		thresh,
	} {
		b, err := json.Marshal(p)
		require.NoError(t, err)
		var got SpendPolicy
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, p.Address(), got.Address(), p.String())
	}

	var p SpendPolicy
	assert.Error(t, json.Unmarshal([]byte(`{"type":"bogus","policy":1}`), &p))
}

func TestPolicyAddressMatchesV1UnlockHash(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	uc := StandardUnlockConditions(pk)
	assert.Equal(t, Address(uc.UnlockHash()), PolicyUnlockConditions(uc).Address())
	assert.Equal(t, StandardAddressV1(pk), PolicyUnlockConditions(uc).Address())
}

func TestPolicyAddressOpacityInvariance(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	inner, err := PolicyThreshold(1, []SpendPolicy{PolicyPublicKey(pk)})
	require.NoError(t, err)
	p, err := PolicyThreshold(1, []SpendPolicy{inner, PolicyHash(Hash256{9})})
	require.NoError(t, err)

	// replacing a sub-policy with its opaque form must not change the address
	pt := p.Type.(PolicyTypeThreshold)
	opaqued := SpendPolicy{PolicyTypeThreshold{
		N:  pt.N,
		Of: []SpendPolicy{pt.Of[0].Opacify(), pt.Of[1]},
	}}
	assert.Equal(t, p.Address(), opaqued.Address())
	assert.Equal(t, p.Address(), p.Opacify().Address())
}

func TestAtomicSwapAddresses(t *testing.T) {
	alice := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	bob := testPublicKey(t, "06C87838297B7BB16AB23946C99DFDF77FF834E35DB07D71E9B1D2B01A11E96D")
	secretHash := Hash256{1}

	full := AtomicSwapPolicy(alice, bob, 77777777, secretHash)
	success := AtomicSwapSuccessPolicy(alice, bob, 77777777, secretHash)
	refund := AtomicSwapRefundPolicy(alice, bob, 77777777, secretHash)

	// both spend forms commit to the same address as the funding policy
	assert.Equal(t, full.Address(), success.Address())
	assert.Equal(t, full.Address(), refund.Address())
}

func TestAddressChecksumString(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	addr := StandardAddressV1(pk)
	s := addr.String()
	assert.Equal(t, "72b0762b382d4c251af5ae25b6777d908726d75962e5224f98d7f619bb39515dd64b9a56043a", s)

	got, err := ParseAddress(s)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	// corrupting the checksum must be detected
	bad := s[:len(s)-1] + "b"
	_, err = ParseAddress(bad)
	assert.Error(t, err)
}

func TestSatisfiedPolicyEncodePublicKey(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	sp := SatisfiedPolicy{
		Policy:     PolicyPublicKey(pk),
		Signatures: []Signature{testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")},
	}
	assert.Equal(t, "51832be911c7382502a2011cbddf1a9f689c4ca08c6a83ae3d021fb0dc781822", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeHash(t *testing.T) {
	sp := SatisfiedPolicy{
		Policy:    PolicyHash(Hash256{}),
		Preimages: []Preimage{{}},
	}
	assert.Equal(t, "1e612d1ee36338b93a36bac0c52007a2d678cde0bd9b95c36a1f61166cf02b87", encodeAndHash(sp.EncodeTo))

	sp.Preimages = []Preimage{testPreimage(1, 2, 3, 4)}
	assert.Equal(t, "80f3caa4507615945bc839c8505546decd91e9642120f26938b2fc370fa61992", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeUnlockConditionsStandard(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	sp := SatisfiedPolicy{
		Policy:     PolicyUnlockConditions(StandardUnlockConditions(pk)),
		Signatures: []Signature{testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")},
	}
	assert.Equal(t, "c749f9ac53395ec557aed7e21d202f76a58e0de79222e5756b27077e9295931f", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeUnlockConditionsComplex(t *testing.T) {
	pks := []PublicKey{
		testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000"),
		testPublicKey(t, "06C87838297B7BB16AB23946C99DFDF77FF834E35DB07D71E9B1D2B01A11E96D"),
		testPublicKey(t, "BE043906FD42297BC0A03CAA6E773EF27FC644261C692D090181E704BE4A88C3"),
	}
	sp := SatisfiedPolicy{
		Policy: PolicyUnlockConditions(MultisigUnlockConditions(pks, 77777777, 3)),
		Signatures: []Signature{
			testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309"),
			testSignature(t, "0734761D562958F6A82819474171F05A40163901513E5858BFF9E4BD9CAFB04DEF0D6D345BACE7D14E50C5C523433B411C7D7E1618BE010A63C55C34A2DEE70A"),
			testSignature(t, "482A2A905D7A6FC730387E06B45EA0CF259FCB219C9A057E539E705F60AC36D7079E26DAFB66ED4DBA9B9694B50BCA64F1D4CC4EBE937CE08A34BF642FAC1F0C"),
		},
	}
	assert.Equal(t, "13806b6c13a97478e476e0e5a0469c9d0ad8bf286bec0ada992e363e9fc60901", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeThreshold(t *testing.T) {
	policy, err := PolicyThreshold(1, []SpendPolicy{PolicyHash(Hash256{})})
	require.NoError(t, err)
	sp := SatisfiedPolicy{
		Policy:    policy,
		Preimages: []Preimage{testPreimage(1, 2, 3, 4)},
	}
	assert.Equal(t, "2200a1464864cfaea8d312c1f16b5e00b816110896bea32ef7e1ccd43042d312", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeAtomicSwapSuccess(t *testing.T) {
	alice := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	bob := testPublicKey(t, "06C87838297B7BB16AB23946C99DFDF77FF834E35DB07D71E9B1D2B01A11E96D")
	secretHash, err := ParseHash256("0100000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	sp := SatisfiedPolicy{
		Policy:     AtomicSwapSuccessPolicy(alice, bob, 77777777, secretHash),
		Signatures: []Signature{testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")},
		Preimages:  []Preimage{testPreimage(1, 2, 3, 4)},
	}
	assert.Equal(t, "08852e4ad99f726120028ecd82925b5f55fa441952cfc034a5cf4f09159b9372", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeAtomicSwapRefund(t *testing.T) {
	alice := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	bob := testPublicKey(t, "06C87838297B7BB16AB23946C99DFDF77FF834E35DB07D71E9B1D2B01A11E96D")
	secretHash, err := ParseHash256("0100000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	sp := SatisfiedPolicy{
		Policy:     AtomicSwapRefundPolicy(alice, bob, 77777777, secretHash),
		Signatures: []Signature{testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")},
		Preimages:  []Preimage{testPreimage(1, 2, 3, 4)},
	}
	assert.Equal(t, "8975e8cf990d5a20d9ec3dae18ed3b3a0c92edf967a8d93fcdef6a1eb73bb348", encodeAndHash(sp.EncodeTo))
}

func TestSatisfiedPolicyEncodeIgnoresSurplusEvidence(t *testing.T) {
	// the policy tree decides what reaches the wire; evidence it does
	// not demand must not change the encoding
	sp := SatisfiedPolicy{
		Policy:    PolicyHash(Hash256{}),
		Preimages: []Preimage{testPreimage(1, 2, 3, 4)},
	}
	withSig := sp
	withSig.Signatures = []Signature{testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")}
	assert.Equal(t, encodeToBytes(sp.EncodeTo), encodeToBytes(withSig.EncodeTo))
	assert.Equal(t, "80f3caa4507615945bc839c8505546decd91e9642120f26938b2fc370fa61992", encodeAndHash(withSig.EncodeTo))
}

func TestSatisfiedPolicyRoundTrip(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	policy, err := PolicyThreshold(2, []SpendPolicy{
		PolicyPublicKey(pk),
		PolicyHash(Hash256{}),
	})
	require.NoError(t, err)
	sp := SatisfiedPolicy{
		Policy:     policy,
		Signatures: []Signature{testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")},
		Preimages:  []Preimage{testPreimage(1, 2, 3, 4)},
	}

	b := encodeToBytes(sp.EncodeTo)
	var got SatisfiedPolicy
	d := encoding.NewBufDecoder(b)
	got.DecodeFrom(d)
	require.NoError(t, d.Err())
	assert.Equal(t, sp, got)
	assert.Equal(t, b, encodeToBytes(got.EncodeTo))
}

func TestSignatureEncode(t *testing.T) {
	sig := testSignature(t, "105641BF4AE119CB15617FC9658BEE5D448E2CC27C9BC3369F4BA5D0E1C3D01EBCB21B669A7B7A17CF8457189EAA657C41D4A2E6F9E0F25D0996D3A17170F309")
	assert.Equal(t, "1e6952fe04eb626ae759a0090af2e701ba35ee6ad15233a2e947cb0f7ae9f7c7", encodeAndHash(sig.EncodeTo))
}

func TestUnlockKeyText(t *testing.T) {
	pk := testPublicKey(t, "0102030000000000000000000000000000000000000000000000000000000000")
	uk := Ed25519UnlockKey(pk)
	b, err := uk.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ed25519:"+hex.EncodeToString(pk[:]), string(b))

	var got UnlockKey
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, uk, got)

	assert.Error(t, got.UnmarshalText([]byte("no-specifier")))
	assert.Error(t, got.UnmarshalText([]byte("ed25519:abcd"))) // wrong length
}
