// Package builder assembles, funds, and signs v2 transactions.
//
// A Builder accumulates outputs and other transaction fields, selects
// inputs to cover them, computes the signature hash, gathers signatures
// and preimages from Signer and PreimageSource capabilities, and
// verifies every input's satisfied policy before emitting the finished
// transaction.
package builder

import (
	"github.com/suffix-labs/sia-wallet/pkg/encoding"
	"github.com/suffix-labs/sia-wallet/pkg/types"
)

// A Candidate is a spendable siacoin output offered to FundSiacoin,
// paired with the spend policy of its address.
type Candidate struct {
	Parent types.SiacoinElement
	Policy types.SpendPolicy
}

// A SelectionStrategy chooses which candidates to spend to reach the
// target amount. It returns the chosen candidates and whether the
// target was reached.
type SelectionStrategy func(candidates []Candidate, target types.Currency) ([]Candidate, bool)

// FirstFit selects candidates in the order supplied until their sum
// reaches the target.
func FirstFit(candidates []Candidate, target types.Currency) ([]Candidate, bool) {
	if target.IsZero() {
		return nil, true
	}
	var sum types.Currency
	for i, c := range candidates {
		sum, _ = sum.AddWithOverflow(c.Parent.SiacoinOutput.Value)
		if sum.Cmp(target) >= 0 {
			return candidates[:i+1], true
		}
	}
	return nil, false
}

// A FeePolicy computes a miner fee from a transaction's weight. Sia
// miner fees are an explicit transaction field covered by every input
// signature, so the fee must be fixed before signing.
type FeePolicy interface {
	MinerFee(weight uint64) types.Currency
}

// FixedFee pays a flat fee regardless of transaction weight.
type FixedFee types.Currency

// MinerFee implements FeePolicy.
func (f FixedFee) MinerFee(uint64) types.Currency { return types.Currency(f) }

// PerByteFee pays a hastings-per-byte rate on the transaction weight,
// as recommended for use with walletd's fee estimate.
type PerByteFee types.Currency

// MinerFee implements FeePolicy.
func (f PerByteFee) MinerFee(weight uint64) types.Currency {
	return types.Currency(f).Mul64(weight)
}

// A Builder incrementally constructs a v2 transaction. The zero value
// is not usable; construct with New.
type Builder struct {
	txn           types.V2Transaction
	changeAddress types.Address
}

// New returns a Builder that sends any funding excess to the address of
// changePolicy.
func New(changePolicy types.SpendPolicy) *Builder {
	return &Builder{changeAddress: changePolicy.Address()}
}

// AddSiacoinInput adds an input spending parent under the given policy.
// The input's evidence is left empty; Sign fills it in later. Only the
// parent IDs contribute to the signature hash, so inputs may be added
// before or after outputs without affecting signability.
func (b *Builder) AddSiacoinInput(parent types.SiacoinElement, policy types.SpendPolicy) *Builder {
	b.txn.SiacoinInputs = append(b.txn.SiacoinInputs, types.SiacoinInput{
		Parent:          parent,
		SatisfiedPolicy: types.SatisfiedPolicy{Policy: policy},
	})
	return b
}

// AddSiacoinOutput adds an output to the transaction.
func (b *Builder) AddSiacoinOutput(sco types.SiacoinOutput) *Builder {
	b.txn.SiacoinOutputs = append(b.txn.SiacoinOutputs, sco)
	return b
}

// AddSiafundInput adds a siafund input spending parent under the given
// policy, directing the accrued siacoin claim to claimAddr.
func (b *Builder) AddSiafundInput(parent types.SiafundElement, claimAddr types.Address, policy types.SpendPolicy) *Builder {
	b.txn.SiafundInputs = append(b.txn.SiafundInputs, types.SiafundInput{
		Parent:          parent,
		ClaimAddress:    claimAddr,
		SatisfiedPolicy: types.SatisfiedPolicy{Policy: policy},
	})
	return b
}

// AddSiafundOutput adds a siafund output to the transaction.
func (b *Builder) AddSiafundOutput(sfo types.SiafundOutput) *Builder {
	b.txn.SiafundOutputs = append(b.txn.SiafundOutputs, sfo)
	return b
}

// AddAttestation adds an attestation to the transaction.
func (b *Builder) AddAttestation(a types.Attestation) *Builder {
	b.txn.Attestations = append(b.txn.Attestations, a)
	return b
}

// SetArbitraryData sets the transaction's arbitrary data.
func (b *Builder) SetArbitraryData(data []byte) *Builder {
	b.txn.ArbitraryData = data
	return b
}

// SetMinerFee sets the transaction's miner fee.
func (b *Builder) SetMinerFee(fee types.Currency) *Builder {
	b.txn.MinerFee = fee
	return b
}

// SetNewFoundationAddress sets the transaction's new foundation
// address.
func (b *Builder) SetNewFoundationAddress(addr types.Address) *Builder {
	b.txn.NewFoundationAddress = &addr
	return b
}

// MinerFeeFromPolicy sets the miner fee according to fp and the
// transaction's current weight. Call it after all inputs and outputs
// are attached; the fee is covered by every input signature and cannot
// change afterwards.
func (b *Builder) MinerFeeFromPolicy(fp FeePolicy) *Builder {
	return b.SetMinerFee(fp.MinerFee(b.Weight()))
}

type countingWriter uint64

func (cw *countingWriter) Write(p []byte) (int, error) {
	*cw += countingWriter(len(p))
	return len(p), nil
}

// Weight returns the size in bytes of the transaction's full wire
// encoding, including any evidence already attached. Multiplying the
// weight by a hastings-per-byte rate yields a miner fee; note that
// evidence gathered later by Sign increases the true broadcast size.
func (b *Builder) Weight() uint64 {
	var cw countingWriter
	e := encoding.NewEncoder(&cw)
	b.txn.EncodeTo(e)
	_ = e.Flush()
	return uint64(cw)
}

// InputSigHash returns the hash every input of the transaction must
// sign in its current state.
func (b *Builder) InputSigHash() types.Hash256 {
	return b.txn.InputSigHash()
}

// FundSiacoin selects candidate outputs whose sum covers the
// transaction's outputs and miner fee, attaches them as inputs, and
// appends a change output for any excess. A nil strategy means
// FirstFit. Funding failure is recoverable: the transaction is left
// unmodified and the caller may retry with more candidates.
func (b *Builder) FundSiacoin(candidates []Candidate, strategy SelectionStrategy) error {
	if strategy == nil {
		strategy = FirstFit
	}

	need := b.txn.MinerFee
	for _, sco := range b.txn.SiacoinOutputs {
		need = need.Add(sco.Value)
	}
	var have types.Currency
	for _, si := range b.txn.SiacoinInputs {
		have, _ = have.AddWithOverflow(si.Parent.SiacoinOutput.Value)
	}
	if have.Cmp(need) >= 0 {
		return nil
	}
	target := need.Sub(have)

	selected, ok := strategy(candidates, target)
	if !ok {
		var available types.Currency
		for _, c := range candidates {
			available, _ = available.AddWithOverflow(c.Parent.SiacoinOutput.Value)
		}
		return &InsufficientFundsError{Required: target, Available: available}
	}
	var selectedSum types.Currency
	for _, c := range selected {
		selectedSum = selectedSum.Add(c.Parent.SiacoinOutput.Value)
		b.AddSiacoinInput(c.Parent, c.Policy)
	}
	if change, underflow := selectedSum.SubWithUnderflow(target); !underflow && !change.IsZero() {
		b.AddSiacoinOutput(types.SiacoinOutput{Value: change, Address: b.changeAddress})
	}
	return nil
}

// Sign computes the signature hash and gathers evidence for every
// input whose satisfied policy is still empty. Unsatisfiable branches
// of threshold policies are opacified so that the attached evidence
// lines up with policy traversal order. Each input's finished
// SatisfiedPolicy is verified before it is attached; Sign never leaves
// the builder holding an under-authorized input it reported success
// for.
func (b *Builder) Sign(ctx types.EvalContext, signer Signer, preimages PreimageSource) error {
	sigHash := b.InputSigHash()
	for i := range b.txn.SiacoinInputs {
		sp := &b.txn.SiacoinInputs[i].SatisfiedPolicy
		if len(sp.Signatures) > 0 || len(sp.Preimages) > 0 {
			continue
		}
		if err := satisfyInput(sp, "siacoin", i, sigHash, ctx, signer, preimages); err != nil {
			return err
		}
	}
	for i := range b.txn.SiafundInputs {
		sp := &b.txn.SiafundInputs[i].SatisfiedPolicy
		if len(sp.Signatures) > 0 || len(sp.Preimages) > 0 {
			continue
		}
		if err := satisfyInput(sp, "siafund", i, sigHash, ctx, signer, preimages); err != nil {
			return err
		}
	}
	return nil
}

func satisfyInput(sp *types.SatisfiedPolicy, class string, index int, sigHash types.Hash256, ctx types.EvalContext, signer Signer, preimages PreimageSource) error {
	c := &collector{sigHash: sigHash, ctx: ctx, signer: signer, preimages: preimages}
	policy, ok := c.collect(sp.Policy)
	if !ok {
		return &PolicyNotSatisfiedError{InputClass: class, InputIndex: index, Leaf: c.unmet}
	}
	candidate := types.SatisfiedPolicy{Policy: policy, Signatures: c.sigs, Preimages: c.pre}
	if !candidate.Policy.Satisfiable(ctx, sigHash, candidate.Signatures, candidate.Preimages) {
		return &PolicyNotSatisfiedError{InputClass: class, InputIndex: index, Leaf: candidate.Policy}
	}
	*sp = candidate
	return nil
}

// A collector walks a policy tree gathering the evidence that
// discharges it, in the order satisfaction checking will consume it.
type collector struct {
	sigHash   types.Hash256
	ctx       types.EvalContext
	signer    Signer
	preimages PreimageSource

	sigs  []types.Signature
	pre   []types.Preimage
	unmet types.SpendPolicy
}

func (c *collector) fail(p types.SpendPolicy) (types.SpendPolicy, bool) {
	c.unmet = p
	return p, false
}

// collect returns the policy to attach (threshold branches that could
// not be satisfied are replaced by their opaque form) and whether the
// gathered evidence discharges it.
func (c *collector) collect(p types.SpendPolicy) (types.SpendPolicy, bool) {
	switch pt := p.Type.(type) {
	case types.PolicyTypeAbove:
		if c.ctx.Height < uint64(pt) {
			return c.fail(p)
		}
		return p, true
	case types.PolicyTypeAfter:
		if c.ctx.MedianTimestamp < uint64(pt) {
			return c.fail(p)
		}
		return p, true
	case types.PolicyTypePublicKey:
		if c.signer == nil {
			return c.fail(p)
		}
		sig, err := c.signer.SignHash(c.sigHash, types.PublicKey(pt))
		if err != nil {
			return c.fail(p)
		}
		c.sigs = append(c.sigs, sig)
		return p, true
	case types.PolicyTypeHash:
		if c.preimages == nil {
			return c.fail(p)
		}
		pi, err := c.preimages.RevealPreimage(types.Hash256(pt))
		if err != nil {
			return c.fail(p)
		}
		c.pre = append(c.pre, pi)
		return p, true
	case types.PolicyTypeThreshold:
		remaining := int(pt.N)
		of := make([]types.SpendPolicy, len(pt.Of))
		var unmet types.SpendPolicy
		for i, child := range pt.Of {
			if remaining == 0 {
				of[i] = child.Opacify()
				continue
			}
			sub := &collector{sigHash: c.sigHash, ctx: c.ctx, signer: c.signer, preimages: c.preimages}
			satisfied, ok := sub.collect(child)
			if !ok {
				unmet = sub.unmet
				of[i] = child.Opacify()
				continue
			}
			c.sigs = append(c.sigs, sub.sigs...)
			c.pre = append(c.pre, sub.pre...)
			of[i] = satisfied
			remaining--
		}
		result := types.SpendPolicy{Type: types.PolicyTypeThreshold{N: pt.N, Of: of}}
		if remaining > 0 {
			c.unmet = unmet
			return result, false
		}
		return result, true
	case types.PolicyTypeOpaque:
		return c.fail(p)
	case types.PolicyTypeUnlockConditions:
		uc := types.UnlockConditions(pt)
		if c.ctx.Height < uc.Timelock {
			return c.fail(p)
		}
		if c.signer == nil {
			return c.fail(p)
		}
		matched := uint64(0)
		for _, uk := range uc.PublicKeys {
			if matched == uc.SignaturesRequired {
				break
			}
			if uk.Algorithm != types.SpecifierEd25519 || len(uk.Key) != 32 {
				continue
			}
			pk := types.PublicKey(uk.Key)
			sig, err := c.signer.SignHash(c.sigHash, pk)
			if err != nil {
				continue
			}
			c.sigs = append(c.sigs, sig)
			matched++
		}
		if matched < uc.SignaturesRequired {
			return c.fail(p)
		}
		return p, true
	default:
		return c.fail(p)
	}
}

// SatisfyAtomicSwapSuccess satisfies the claim path of the atomic swap
// input at index: the claimant's signature plus the secret. The input's
// policy must be the AtomicSwapSuccessPolicy form.
func (b *Builder) SatisfyAtomicSwapSuccess(priv types.PrivateKey, secret types.Preimage, index int) error {
	if index < 0 || index >= len(b.txn.SiacoinInputs) {
		return &InputIndexError{Index: index, Len: len(b.txn.SiacoinInputs)}
	}
	sig := priv.SignHash(b.InputSigHash())
	sp := &b.txn.SiacoinInputs[index].SatisfiedPolicy
	sp.Signatures = append(sp.Signatures, sig)
	sp.Preimages = append(sp.Preimages, secret)
	return nil
}

// SatisfyAtomicSwapRefund satisfies the refund path of the atomic swap
// input at index with the refunder's signature. The input's policy must
// be the AtomicSwapRefundPolicy form.
func (b *Builder) SatisfyAtomicSwapRefund(priv types.PrivateKey, index int) error {
	if index < 0 || index >= len(b.txn.SiacoinInputs) {
		return &InputIndexError{Index: index, Len: len(b.txn.SiacoinInputs)}
	}
	sig := priv.SignHash(b.InputSigHash())
	sp := &b.txn.SiacoinInputs[index].SatisfiedPolicy
	sp.Signatures = append(sp.Signatures, sig)
	return nil
}

// Build returns the finished transaction. The builder retains its
// state; further mutation does not affect the returned value's slices.
func (b *Builder) Build() types.V2Transaction {
	txn := b.txn
	txn.SiacoinInputs = append([]types.SiacoinInput(nil), txn.SiacoinInputs...)
	txn.SiacoinOutputs = append([]types.SiacoinOutput(nil), txn.SiacoinOutputs...)
	txn.SiafundInputs = append([]types.SiafundInput(nil), txn.SiafundInputs...)
	txn.SiafundOutputs = append([]types.SiafundOutput(nil), txn.SiafundOutputs...)
	txn.Attestations = append([]types.Attestation(nil), txn.Attestations...)
	return txn
}
