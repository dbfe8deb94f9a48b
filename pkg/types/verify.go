package types

import "crypto/sha256"

// An EvalContext carries the chain state a policy is evaluated against.
type EvalContext struct {
	// Height is the current chain height, checked by above-policies and
	// v1 timelocks.
	Height uint64
	// MedianTimestamp is the chain's median Unix timestamp, checked by
	// after-policies.
	MedianTimestamp uint64
}

// Satisfiable reports whether the supplied evidence discharges p. It is
// a predicate: malformed or missing evidence yields false, never an
// error. Signatures must be over sigHash, and are consumed in the order
// the policy tree is traversed; so are preimages. Concurrent calls on
// the same policy are safe.
func (p SpendPolicy) Satisfiable(ctx EvalContext, sigHash Hash256, signatures []Signature, preimages []Preimage) bool {
	return satisfy(p, ctx, sigHash, &evidence{sigs: signatures, preimages: preimages})
}

type evidence struct {
	sigs      []Signature
	preimages []Preimage
}

func (ev *evidence) nextSig() (Signature, bool) {
	if len(ev.sigs) == 0 {
		return Signature{}, false
	}
	s := ev.sigs[0]
	ev.sigs = ev.sigs[1:]
	return s, true
}

func (ev *evidence) nextPreimage() (Preimage, bool) {
	if len(ev.preimages) == 0 {
		return Preimage{}, false
	}
	pi := ev.preimages[0]
	ev.preimages = ev.preimages[1:]
	return pi, true
}

func satisfy(p SpendPolicy, ctx EvalContext, sigHash Hash256, ev *evidence) bool {
	switch pt := p.Type.(type) {
	case PolicyTypeAbove:
		return ctx.Height >= uint64(pt)
	case PolicyTypeAfter:
		return ctx.MedianTimestamp >= uint64(pt)
	case PolicyTypePublicKey:
		sig, ok := ev.nextSig()
		return ok && PublicKey(pt).VerifyHash(sigHash, sig)
	case PolicyTypeHash:
		pi, ok := ev.nextPreimage()
		return ok && sha256.Sum256(pi[:]) == [32]byte(pt)
	case PolicyTypeThreshold:
		// Sub-policies are evaluated left to right; each non-opaque
		// sub-policy consumes its own evidence. Spenders opacify the
		// branches they are not taking, so those contribute neither
		// evidence nor satisfaction. Evaluation stops as soon as N
		// children are satisfied: a sibling's evidence must never be
		// consumed by a subtree that already has enough.
		satisfied := uint8(0)
		for _, sp := range pt.Of {
			if satisfied == pt.N {
				break
			}
			if _, opaque := sp.Type.(PolicyTypeOpaque); opaque {
				continue
			}
			if satisfy(sp, ctx, sigHash, ev) {
				satisfied++
			}
		}
		return satisfied == pt.N
	case PolicyTypeOpaque:
		return false
	case PolicyTypeUnlockConditions:
		uc := UnlockConditions(pt)
		if ctx.Height < uc.Timelock {
			return false
		}
		// Signatures are matched to listed keys in order: each key may
		// consume the next signature if it verifies. A signature by a
		// key outside the list never matches, and duplicate listed keys
		// occupy distinct slots.
		matched := uint64(0)
		for _, uk := range uc.PublicKeys {
			if matched == uc.SignaturesRequired || len(ev.sigs) == 0 {
				break
			}
			if uk.Algorithm != SpecifierEd25519 || len(uk.Key) != 32 {
				continue
			}
			var pk PublicKey
			copy(pk[:], uk.Key)
			if pk.VerifyHash(sigHash, ev.sigs[0]) {
				ev.nextSig()
				matched++
			}
		}
		return matched >= uc.SignaturesRequired
	}
	return false
}
