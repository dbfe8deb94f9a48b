package builder

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
	"github.com/suffix-labs/sia-wallet/pkg/types"
)

func testKeypair(t *testing.T, seed byte) (types.PrivateKey, types.PublicKey) {
	t.Helper()
	b := make([]byte, 32)
	b[0] = seed
	priv, err := types.NewPrivateKeyFromSeed(b)
	require.NoError(t, err)
	return priv, priv.PublicKey()
}

func testCandidate(id byte, value uint64, policy types.SpendPolicy) Candidate {
	return Candidate{
		Parent: types.SiacoinElement{
			ID: types.SiacoinOutputID{id},
			StateElement: types.StateElement{
				LeafIndex:   uint64(id),
				MerkleProof: []types.Hash256{{id}},
			},
			SiacoinOutput: types.SiacoinOutput{
				Value:   types.NewCurrency64(value),
				Address: policy.Address(),
			},
		},
		Policy: policy,
	}
}

func encodeTxn(t *testing.T, txn types.V2Transaction) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := encoding.NewEncoder(&buf)
	txn.EncodeTo(e)
	require.NoError(t, e.Flush())
	return buf.Bytes()
}

func TestFirstFit(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)
	candidates := []Candidate{
		testCandidate(1, 30, policy),
		testCandidate(2, 50, policy),
		testCandidate(3, 40, policy),
	}

	selected, ok := FirstFit(candidates, types.ZeroCurrency)
	assert.True(t, ok)
	assert.Empty(t, selected)

	selected, ok = FirstFit(candidates, types.NewCurrency64(30))
	assert.True(t, ok)
	assert.Len(t, selected, 1)

	selected, ok = FirstFit(candidates, types.NewCurrency64(70))
	assert.True(t, ok)
	assert.Len(t, selected, 2)

	_, ok = FirstFit(candidates, types.NewCurrency64(121))
	assert.False(t, ok)
}

func TestFundSiacoinInsufficient(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(90), Address: types.Address{1}})
	b.SetMinerFee(types.NewCurrency64(10))

	err := b.FundSiacoin([]Candidate{testCandidate(1, 60, policy)}, nil)
	var ife *InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, types.NewCurrency64(100), ife.Required)
	assert.Equal(t, types.NewCurrency64(60), ife.Available)
	assert.Equal(t, types.NewCurrency64(40), ife.Shortfall())

	// funding failure leaves the transaction untouched
	assert.Empty(t, b.Build().SiacoinInputs)
}

func TestFundSiacoinChange(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(60), Address: types.Address{1}})
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 100, policy)}, nil))

	txn := b.Build()
	require.Len(t, txn.SiacoinInputs, 1)
	require.Len(t, txn.SiacoinOutputs, 2)
	assert.Equal(t, types.NewCurrency64(40), txn.SiacoinOutputs[1].Value)
	assert.Equal(t, policy.Address(), txn.SiacoinOutputs[1].Address)
}

func TestFundSiacoinExact(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(90), Address: types.Address{1}})
	b.SetMinerFee(types.NewCurrency64(10))
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 100, policy)}, nil))

	txn := b.Build()
	require.Len(t, txn.SiacoinInputs, 1)
	assert.Len(t, txn.SiacoinOutputs, 1) // no change output
}

func TestFundSiacoinAlreadyFunded(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(50), Address: types.Address{1}})
	b.AddSiacoinInput(testCandidate(1, 50, policy).Parent, policy)
	require.NoError(t, b.FundSiacoin(nil, nil))
	assert.Len(t, b.Build().SiacoinInputs, 1)
}

func TestSignEndToEnd(t *testing.T) {
	priv, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)
	ks := NewKeyringSigner().AddKey(priv)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(90), Address: types.Address{1}})
	b.SetMinerFee(types.NewCurrency64(10))
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 100, policy)}, nil))

	ctx := types.EvalContext{Height: 1000}
	require.NoError(t, b.Sign(ctx, ks, ks))

	txn := b.Build()
	sigHash := txn.InputSigHash()
	for _, si := range txn.SiacoinInputs {
		sp := si.SatisfiedPolicy
		assert.True(t, sp.Policy.Satisfiable(ctx, sigHash, sp.Signatures, sp.Preimages))
	}

	// the finished transaction survives a wire round trip unchanged
	wire := encodeTxn(t, txn)
	var got types.V2Transaction
	d := encoding.NewBufDecoder(wire)
	got.DecodeFrom(d)
	require.NoError(t, d.Err())
	assert.Equal(t, wire, encodeTxn(t, got))
	assert.Equal(t, txn.ID(), got.ID())
}

func TestSignStableID(t *testing.T) {
	priv, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)
	ks := NewKeyringSigner().AddKey(priv)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(50), Address: types.Address{1}})
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 50, policy)}, nil))

	// gathering evidence must not change the signature hash or identity
	before, beforeID := b.InputSigHash(), b.Build().ID()
	require.NoError(t, b.Sign(types.EvalContext{}, ks, ks))
	assert.Equal(t, before, b.InputSigHash())
	assert.Equal(t, beforeID, b.Build().ID())
}

func TestSignUnknownKey(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(50), Address: types.Address{1}})
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 50, policy)}, nil))

	err := b.Sign(types.EvalContext{}, NewKeyringSigner(), nil)
	var pnse *PolicyNotSatisfiedError
	require.ErrorAs(t, err, &pnse)
	assert.Equal(t, "siacoin", pnse.InputClass)
	assert.Equal(t, 0, pnse.InputIndex)
	assert.Equal(t, policy, pnse.Leaf)
}

func TestSignUnknownKeySiafundInput(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiafundInput(types.SiafundElement{
		ID:            types.SiafundOutputID{1},
		SiafundOutput: types.SiafundOutput{Value: 1, Address: policy.Address()},
	}, policy.Address(), policy)

	err := b.Sign(types.EvalContext{}, NewKeyringSigner(), nil)
	var pnse *PolicyNotSatisfiedError
	require.ErrorAs(t, err, &pnse)
	assert.Equal(t, "siafund", pnse.InputClass)
	assert.Equal(t, 0, pnse.InputIndex)
}

func TestSignThresholdOpacifiesUntakenBranch(t *testing.T) {
	privA, pkA := testKeypair(t, 1)
	_, pkB := testKeypair(t, 2)
	policy, err := types.PolicyThreshold(1, []types.SpendPolicy{
		types.PolicyPublicKey(pkA),
		types.PolicyPublicKey(pkB),
	})
	require.NoError(t, err)
	ks := NewKeyringSigner().AddKey(privA)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(50), Address: types.Address{1}})
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 50, policy)}, nil))

	ctx := types.EvalContext{}
	require.NoError(t, b.Sign(ctx, ks, ks))

	txn := b.Build()
	sp := txn.SiacoinInputs[0].SatisfiedPolicy
	require.Len(t, sp.Signatures, 1)

	pt := sp.Policy.Type.(types.PolicyTypeThreshold)
	assert.IsType(t, types.PolicyTypePublicKey{}, pt.Of[0].Type)
	assert.IsType(t, types.PolicyTypeOpaque{}, pt.Of[1].Type)

	// opacifying the untaken branch keeps the address stable
	assert.Equal(t, policy.Address(), sp.Policy.Address())
	assert.True(t, sp.Policy.Satisfiable(ctx, txn.InputSigHash(), sp.Signatures, sp.Preimages))
}

func TestSignHashLock(t *testing.T) {
	secret := types.Preimage{9, 9, 9}
	policy := types.PolicyHash(types.Hash256(sha256.Sum256(secret[:])))
	ks := NewKeyringSigner().AddPreimage(secret)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(10), Address: types.Address{1}})
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 10, policy)}, nil))

	ctx := types.EvalContext{}
	require.NoError(t, b.Sign(ctx, ks, ks))

	txn := b.Build()
	sp := txn.SiacoinInputs[0].SatisfiedPolicy
	assert.Equal(t, []types.Preimage{secret}, sp.Preimages)
	assert.True(t, sp.Policy.Satisfiable(ctx, txn.InputSigHash(), sp.Signatures, sp.Preimages))
}

func TestSignSkipsExistingEvidence(t *testing.T) {
	priv, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)
	ks := NewKeyringSigner().AddKey(priv)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(50), Address: types.Address{1}})
	require.NoError(t, b.FundSiacoin([]Candidate{testCandidate(1, 50, policy)}, nil))
	require.NoError(t, b.Sign(types.EvalContext{}, ks, ks))

	// a second pass must not duplicate evidence
	require.NoError(t, b.Sign(types.EvalContext{}, ks, ks))
	assert.Len(t, b.Build().SiacoinInputs[0].SatisfiedPolicy.Signatures, 1)
}

func TestAtomicSwapSuccessSpend(t *testing.T) {
	alicePriv, alice := testKeypair(t, 1)
	_, bob := testKeypair(t, 2)
	secret := types.Preimage{4, 3, 2, 1}
	secretHash := types.Hash256(sha256.Sum256(secret[:]))
	const lockTime = 77777777

	spendPolicy := types.AtomicSwapSuccessPolicy(alice, bob, lockTime, secretHash)

	b := New(types.PolicyPublicKey(alice))
	b.AddSiacoinInput(testCandidate(1, 100, spendPolicy).Parent, spendPolicy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(100), Address: alice.StandardAddress()})
	require.NoError(t, b.SatisfyAtomicSwapSuccess(alicePriv, secret, 0))

	txn := b.Build()
	sp := txn.SiacoinInputs[0].SatisfiedPolicy
	assert.True(t, sp.Policy.Satisfiable(types.EvalContext{}, txn.InputSigHash(), sp.Signatures, sp.Preimages))
}

func TestAtomicSwapRefundSpend(t *testing.T) {
	_, alice := testKeypair(t, 1)
	bobPriv, bob := testKeypair(t, 2)
	secretHash := types.Hash256{1}
	const lockTime = 77777777

	spendPolicy := types.AtomicSwapRefundPolicy(alice, bob, lockTime, secretHash)

	b := New(types.PolicyPublicKey(bob))
	b.AddSiacoinInput(testCandidate(1, 100, spendPolicy).Parent, spendPolicy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(100), Address: bob.StandardAddress()})
	require.NoError(t, b.SatisfyAtomicSwapRefund(bobPriv, 0))

	txn := b.Build()
	sp := txn.SiacoinInputs[0].SatisfiedPolicy
	ctx := types.EvalContext{MedianTimestamp: lockTime}
	assert.True(t, sp.Policy.Satisfiable(ctx, txn.InputSigHash(), sp.Signatures, sp.Preimages))
	// before the lock time the refund path stays closed
	assert.False(t, sp.Policy.Satisfiable(types.EvalContext{MedianTimestamp: lockTime - 1}, txn.InputSigHash(), sp.Signatures, sp.Preimages))
}

func TestSatisfyAtomicSwapIndexError(t *testing.T) {
	priv, pk := testKeypair(t, 1)
	b := New(types.PolicyPublicKey(pk))
	var iie *InputIndexError
	require.ErrorAs(t, b.SatisfyAtomicSwapSuccess(priv, types.Preimage{}, 0), &iie)
	require.ErrorAs(t, b.SatisfyAtomicSwapRefund(priv, -1), &iie)
}

func TestWeightAndFees(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	w0 := b.Weight()
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(1), Address: types.Address{1}})
	w1 := b.Weight()
	assert.Greater(t, w1, w0)

	b.MinerFeeFromPolicy(FixedFee(types.NewCurrency64(42)))
	assert.Equal(t, types.NewCurrency64(42), b.Build().MinerFee)

	w := b.Weight()
	b.MinerFeeFromPolicy(PerByteFee(types.NewCurrency64(3)))
	assert.Equal(t, types.NewCurrency64(3).Mul64(w), b.Build().MinerFee)
}

func TestBuildCopiesSlices(t *testing.T) {
	_, pk := testKeypair(t, 1)
	policy := types.PolicyPublicKey(pk)

	b := New(policy)
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(1), Address: types.Address{1}})
	txn := b.Build()
	b.AddSiacoinOutput(types.SiacoinOutput{Value: types.NewCurrency64(2), Address: types.Address{2}})
	assert.Len(t, txn.SiacoinOutputs, 1)
}
