package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// A SpendPolicy describes the conditions under which an output may be
// spent: a height or timestamp lock, a required signature, a required
// hash preimage, or an arbitrary m-of-n combination of sub-policies.
// Policies are trees; a policy's address commits to the entire tree, and
// branches that are not taken when spending can be replaced with their
// opaque form.
type SpendPolicy struct {
	Type interface{ isPolicyType() }
}

// PolicyTypeAbove requires the chain height to be at or above a given
// height.
type PolicyTypeAbove uint64

// PolicyTypeAfter requires the chain's median timestamp to be at or
// after a given Unix timestamp.
type PolicyTypeAfter uint64

// PolicyTypePublicKey requires a valid signature over the transaction's
// signature hash from a given key.
type PolicyTypePublicKey PublicKey

// PolicyTypeHash requires the SHA-256 preimage of a given hash to be
// revealed.
type PolicyTypeHash Hash256

// PolicyTypeThreshold requires at least N of its sub-policies to be
// satisfied.
type PolicyTypeThreshold struct {
	N  uint8
	Of []SpendPolicy
}

// PolicyTypeOpaque is the unsatisfiable replacement for a policy subtree
// that is not revealed when spending. It carries only the subtree's
// address, keeping the parent's address stable.
type PolicyTypeOpaque Address

// PolicyTypeUnlockConditions pre-dates the SpendPolicy model; it is
// retained for compatibility with v1 outputs.
type PolicyTypeUnlockConditions UnlockConditions

func (PolicyTypeAbove) isPolicyType()            {}
func (PolicyTypeAfter) isPolicyType()            {}
func (PolicyTypePublicKey) isPolicyType()        {}
func (PolicyTypeHash) isPolicyType()             {}
func (PolicyTypeThreshold) isPolicyType()        {}
func (PolicyTypeOpaque) isPolicyType()           {}
func (PolicyTypeUnlockConditions) isPolicyType() {}

// PolicyAbove returns a policy that is satisfied when the chain height
// reaches height.
func PolicyAbove(height uint64) SpendPolicy {
	return SpendPolicy{PolicyTypeAbove(height)}
}

// PolicyAfter returns a policy that is satisfied once the chain's median
// timestamp reaches the given Unix timestamp.
func PolicyAfter(timestamp uint64) SpendPolicy {
	return SpendPolicy{PolicyTypeAfter(timestamp)}
}

// PolicyPublicKey returns a policy that requires a valid signature from
// pk over the transaction's signature hash.
func PolicyPublicKey(pk PublicKey) SpendPolicy {
	return SpendPolicy{PolicyTypePublicKey(pk)}
}

// PolicyHash returns a policy that requires the SHA-256 preimage of h to
// be revealed.
func PolicyHash(h Hash256) SpendPolicy {
	return SpendPolicy{PolicyTypeHash(h)}
}

// PolicyThreshold returns a policy that requires at least n of the given
// sub-policies to be satisfied. A threshold that can never be satisfied
// is rejected at construction rather than silently failing at
// evaluation time.
func PolicyThreshold(n uint8, of []SpendPolicy) (SpendPolicy, error) {
	if len(of) > 255 {
		return SpendPolicy{}, &InvalidPolicyError{
			Reason: fmt.Sprintf("%d sub-policies exceed the encodable maximum of 255", len(of)),
		}
	}
	if int(n) > len(of) {
		return SpendPolicy{}, &InvalidPolicyError{
			Reason: fmt.Sprintf("threshold of %d exceeds %d sub-policies", n, len(of)),
		}
	}
	return SpendPolicy{PolicyTypeThreshold{N: n, Of: of}}, nil
}

// PolicyOpaque returns the unsatisfiable policy with the given address.
func PolicyOpaque(a Address) SpendPolicy {
	return SpendPolicy{PolicyTypeOpaque(a)}
}

// PolicyUnlockConditions returns a policy wrapping v1 unlock conditions.
func PolicyUnlockConditions(uc UnlockConditions) SpendPolicy {
	return SpendPolicy{PolicyTypeUnlockConditions(uc)}
}

// AnyoneCanSpend returns a policy with no conditions at all.
func AnyoneCanSpend() SpendPolicy {
	return SpendPolicy{PolicyTypeThreshold{N: 0, Of: nil}}
}

// An InvalidPolicyError is returned when a policy violates a structural
// invariant at construction time.
type InvalidPolicyError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidPolicyError) Error() string {
	return "invalid policy: " + e.Reason
}

const policyVersion = 1

// maxPolicies caps the total number of sub-policies a decoded policy
// tree may contain, bounding recursion on hostile input.
const maxPolicies = 1024

// Policy opcodes.
const (
	opInvalid = iota
	opAbove
	opAfter
	opPublicKey
	opHash
	opThreshold
	opOpaque
	opUnlockConditions
)

// EncodeTo implements encoding.EncoderTo. The canonical form is a
// version byte followed by the policy tree; sub-policies of a threshold
// are encoded without the version byte.
func (p SpendPolicy) EncodeTo(e *encoding.Encoder) {
	e.WriteUint8(policyVersion)
	p.encodeTerm(e)
}

func (p SpendPolicy) encodeTerm(e *encoding.Encoder) {
	switch pt := p.Type.(type) {
	case PolicyTypeAbove:
		e.WriteUint8(opAbove)
		e.WriteUint64(uint64(pt))
	case PolicyTypeAfter:
		e.WriteUint8(opAfter)
		e.WriteUint64(uint64(pt))
	case PolicyTypePublicKey:
		e.WriteUint8(opPublicKey)
		PublicKey(pt).EncodeTo(e)
	case PolicyTypeHash:
		e.WriteUint8(opHash)
		Hash256(pt).EncodeTo(e)
	case PolicyTypeThreshold:
		e.WriteUint8(opThreshold)
		e.WriteUint8(pt.N)
		e.WriteUint8(uint8(len(pt.Of)))
		for _, sp := range pt.Of {
			sp.encodeTerm(e)
		}
	case PolicyTypeOpaque:
		e.WriteUint8(opOpaque)
		Address(pt).EncodeTo(e)
	case PolicyTypeUnlockConditions:
		e.WriteUint8(opUnlockConditions)
		UnlockConditions(pt).EncodeTo(e)
	default:
		panic(fmt.Sprintf("unhandled policy type %T", pt))
	}
}

// DecodeFrom implements encoding.DecoderFrom.
func (p *SpendPolicy) DecodeFrom(d *encoding.Decoder) {
	if version := d.ReadUint8(); version != policyVersion {
		d.SetErr(fmt.Errorf("unsupported policy version (%v)", version))
		return
	}
	totalPolicies := 1
	p.decodeTerm(d, &totalPolicies)
}

func (p *SpendPolicy) decodeTerm(d *encoding.Decoder, totalPolicies *int) {
	switch op := d.ReadUint8(); op {
	case opAbove:
		p.Type = PolicyTypeAbove(d.ReadUint64())
	case opAfter:
		p.Type = PolicyTypeAfter(d.ReadUint64())
	case opPublicKey:
		var pk PublicKey
		pk.DecodeFrom(d)
		p.Type = PolicyTypePublicKey(pk)
	case opHash:
		var h Hash256
		h.DecodeFrom(d)
		p.Type = PolicyTypeHash(h)
	case opThreshold:
		pt := PolicyTypeThreshold{
			N:  d.ReadUint8(),
			Of: make([]SpendPolicy, d.ReadUint8()),
		}
		if *totalPolicies += len(pt.Of); *totalPolicies > maxPolicies {
			d.SetErr(fmt.Errorf("policy is too complex"))
			return
		}
		for i := range pt.Of {
			pt.Of[i].decodeTerm(d, totalPolicies)
			if d.Err() != nil {
				return
			}
		}
		if int(pt.N) > len(pt.Of) {
			d.SetErr(fmt.Errorf("threshold of %d exceeds %d sub-policies", pt.N, len(pt.Of)))
			return
		}
		p.Type = pt
	case opOpaque:
		var a Address
		a.DecodeFrom(d)
		p.Type = PolicyTypeOpaque(a)
	case opUnlockConditions:
		var uc UnlockConditions
		uc.DecodeFrom(d)
		p.Type = PolicyTypeUnlockConditions(uc)
	default:
		d.SetErr(fmt.Errorf("unknown policy opcode (%v)", op))
	}
}

// Address returns the address committing to the policy: the
// domain-separated hash of its canonical encoding, with threshold
// sub-policies replaced by their opaque forms. Unlock-conditions
// policies use the v1 unlock hash instead.
func (p SpendPolicy) Address() Address {
	if uc, ok := p.Type.(PolicyTypeUnlockConditions); ok {
		return UnlockConditions(uc).Address()
	}
	if pt, ok := p.Type.(PolicyTypeThreshold); ok {
		of := make([]SpendPolicy, len(pt.Of))
		for i, sp := range pt.Of {
			// Already-opaque children stay as they are; re-opacifying
			// would commit to a different address than the policy they
			// were derived from.
			if _, opaque := sp.Type.(PolicyTypeOpaque); opaque {
				of[i] = sp
			} else {
				of[i] = sp.Opacify()
			}
		}
		p = SpendPolicy{PolicyTypeThreshold{N: pt.N, Of: of}}
	}
	h := encoding.NewHasher()
	h.WriteDistinguisher("address")
	p.EncodeTo(h.E)
	return Address(h.Sum())
}

// Opacify returns the opaque form of p, which carries only p's address.
func (p SpendPolicy) Opacify() SpendPolicy {
	return PolicyOpaque(p.Address())
}

// String implements fmt.Stringer.
func (p SpendPolicy) String() string {
	switch pt := p.Type.(type) {
	case PolicyTypeAbove:
		return fmt.Sprintf("above(%d)", pt)
	case PolicyTypeAfter:
		return fmt.Sprintf("after(%d)", pt)
	case PolicyTypePublicKey:
		return fmt.Sprintf("pk(%s)", PublicKey(pt))
	case PolicyTypeHash:
		return fmt.Sprintf("h(%s)", Hash256(pt))
	case PolicyTypeThreshold:
		of := make([]string, len(pt.Of))
		for i, sp := range pt.Of {
			of[i] = sp.String()
		}
		return fmt.Sprintf("thresh(%d, [%s])", pt.N, strings.Join(of, ", "))
	case PolicyTypeOpaque:
		return fmt.Sprintf("opaque(%s)", Hash256(pt))
	case PolicyTypeUnlockConditions:
		return fmt.Sprintf("uc(timelock: %d, keys: %d, sigs required: %d)",
			pt.Timelock, len(pt.PublicKeys), pt.SignaturesRequired)
	}
	return "invalid"
}

// MarshalJSON implements json.Marshaler, producing the walletd tagged
// form: {"type": ..., "policy": ...}.
func (p SpendPolicy) MarshalJSON() ([]byte, error) {
	var v struct {
		Type   string      `json:"type"`
		Policy interface{} `json:"policy"`
	}
	switch pt := p.Type.(type) {
	case PolicyTypeAbove:
		v.Type, v.Policy = "above", uint64(pt)
	case PolicyTypeAfter:
		v.Type, v.Policy = "after", uint64(pt)
	case PolicyTypePublicKey:
		v.Type, v.Policy = "pk", PublicKey(pt)
	case PolicyTypeHash:
		v.Type, v.Policy = "h", Hash256(pt)
	case PolicyTypeThreshold:
		v.Type = "thresh"
		v.Policy = struct {
			N  uint8         `json:"n"`
			Of []SpendPolicy `json:"of"`
		}{pt.N, pt.Of}
	case PolicyTypeOpaque:
		v.Type, v.Policy = "opaque", Address(pt)
	case PolicyTypeUnlockConditions:
		v.Type, v.Policy = "uc", UnlockConditions(pt)
	default:
		return nil, fmt.Errorf("unhandled policy type %T", pt)
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *SpendPolicy) UnmarshalJSON(b []byte) error {
	var v struct {
		Type   string          `json:"type"`
		Policy json.RawMessage `json:"policy"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.Type {
	case "above":
		var height uint64
		if err := json.Unmarshal(v.Policy, &height); err != nil {
			return err
		}
		p.Type = PolicyTypeAbove(height)
	case "after":
		var ts uint64
		if err := json.Unmarshal(v.Policy, &ts); err != nil {
			return err
		}
		p.Type = PolicyTypeAfter(ts)
	case "pk":
		var pk PublicKey
		if err := json.Unmarshal(v.Policy, &pk); err != nil {
			return err
		}
		p.Type = PolicyTypePublicKey(pk)
	case "h":
		var h Hash256
		if err := json.Unmarshal(v.Policy, &h); err != nil {
			return err
		}
		p.Type = PolicyTypeHash(h)
	case "thresh":
		var pt struct {
			N  uint8         `json:"n"`
			Of []SpendPolicy `json:"of"`
		}
		if err := json.Unmarshal(v.Policy, &pt); err != nil {
			return err
		}
		p.Type = PolicyTypeThreshold{N: pt.N, Of: pt.Of}
	case "opaque":
		var a Address
		if err := json.Unmarshal(v.Policy, &a); err != nil {
			return err
		}
		p.Type = PolicyTypeOpaque(a)
	case "uc":
		var uc UnlockConditions
		if err := json.Unmarshal(v.Policy, &uc); err != nil {
			return err
		}
		p.Type = PolicyTypeUnlockConditions(uc)
	default:
		return fmt.Errorf("unknown policy type %q", v.Type)
	}
	return nil
}

// An UnlockKey identifies a signing key in v1 unlock conditions. Only
// ed25519 keys can be signed for, but other algorithms must round-trip.
type UnlockKey struct {
	Algorithm Specifier
	Key       []byte
}

// Ed25519UnlockKey returns pk as an UnlockKey.
func Ed25519UnlockKey(pk PublicKey) UnlockKey {
	return UnlockKey{Algorithm: SpecifierEd25519, Key: pk[:]}
}

// EncodeTo implements encoding.EncoderTo.
func (uk UnlockKey) EncodeTo(e *encoding.Encoder) {
	uk.Algorithm.EncodeTo(e)
	e.WriteBytes(uk.Key)
}

// DecodeFrom implements encoding.DecoderFrom.
func (uk *UnlockKey) DecodeFrom(d *encoding.Decoder) {
	uk.Algorithm.DecodeFrom(d)
	uk.Key = d.ReadBytes()
}

// String implements fmt.Stringer.
func (uk UnlockKey) String() string {
	return uk.Algorithm.String() + ":" + hex.EncodeToString(uk.Key)
}

// MarshalText implements encoding.TextMarshaler.
func (uk UnlockKey) MarshalText() ([]byte, error) { return []byte(uk.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (uk *UnlockKey) UnmarshalText(b []byte) error {
	spec, keyHex, ok := strings.Cut(string(b), ":")
	if !ok {
		return fmt.Errorf("decoding UnlockKey: missing algorithm specifier in %q", string(b))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("decoding UnlockKey: %w", err)
	}
	if spec == SpecifierEd25519.String() {
		if _, err := NewPublicKey(key); err != nil {
			return fmt.Errorf("decoding UnlockKey: %w", err)
		}
	}
	uk.Algorithm = NewSpecifier(spec)
	uk.Key = key
	return nil
}

// UnlockConditions specify the conditions for spending a v1 output: a
// timelock and a subset of listed keys that must each sign.
type UnlockConditions struct {
	Timelock           uint64      `json:"timelock"`
	PublicKeys         []UnlockKey `json:"publicKeys"`
	SignaturesRequired uint64      `json:"signaturesRequired"`
}

// StandardUnlockConditions returns the unlock conditions for a single
// ed25519 key with no timelock.
func StandardUnlockConditions(pk PublicKey) UnlockConditions {
	return UnlockConditions{
		PublicKeys:         []UnlockKey{Ed25519UnlockKey(pk)},
		SignaturesRequired: 1,
	}
}

// MultisigUnlockConditions returns unlock conditions requiring
// sigsRequired of the listed keys to sign after the given timelock.
func MultisigUnlockConditions(pks []PublicKey, timelock, sigsRequired uint64) UnlockConditions {
	keys := make([]UnlockKey, len(pks))
	for i, pk := range pks {
		keys[i] = Ed25519UnlockKey(pk)
	}
	return UnlockConditions{
		Timelock:           timelock,
		PublicKeys:         keys,
		SignaturesRequired: sigsRequired,
	}
}

// EncodeTo implements encoding.EncoderTo.
func (uc UnlockConditions) EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(uc.Timelock)
	encoding.EncodeSlice(e, uc.PublicKeys)
	e.WriteUint64(uc.SignaturesRequired)
}

// DecodeFrom implements encoding.DecoderFrom.
func (uc *UnlockConditions) DecodeFrom(d *encoding.Decoder) {
	uc.Timelock = d.ReadUint64()
	encoding.DecodeSlice(d, &uc.PublicKeys)
	uc.SignaturesRequired = d.ReadUint64()
}

// A Preimage is the 32-byte input whose SHA-256 digest discharges a
// hash-lock policy.
type Preimage [32]byte

// EncodeTo implements encoding.EncoderTo.
func (pi Preimage) EncodeTo(e *encoding.Encoder) { e.Write(pi[:]) }

// DecodeFrom implements encoding.DecoderFrom.
func (pi *Preimage) DecodeFrom(d *encoding.Decoder) { d.ReadFull(pi[:]) }

// String implements fmt.Stringer.
func (pi Preimage) String() string { return hex.EncodeToString(pi[:]) }

// MarshalText implements encoding.TextMarshaler.
func (pi Preimage) MarshalText() ([]byte, error) { return []byte(pi.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (pi *Preimage) UnmarshalText(b []byte) error {
	return decodeHexArray(pi[:], b, "Preimage")
}

// A SatisfiedPolicy pairs a policy with the evidence discharging it:
// signatures and preimages in the order the policy's evaluation consumes
// them.
type SatisfiedPolicy struct {
	Policy     SpendPolicy `json:"policy"`
	Signatures []Signature `json:"signatures,omitempty"`
	Preimages  []Preimage  `json:"preimages,omitempty"`
}

// EncodeTo implements encoding.EncoderTo. Evidence is not
// length-prefixed: the policy tree determines exactly which signatures
// and preimages appear, in traversal order, so surplus evidence never
// reaches the wire. Missing evidence encodes as zero values, keeping
// the encoded size of an input independent of whether it has been
// signed yet.
func (sp SatisfiedPolicy) EncodeTo(e *encoding.Encoder) {
	sp.Policy.EncodeTo(e)
	var sigi, prei int
	nextSig := func() (s Signature) {
		if sigi < len(sp.Signatures) {
			s = sp.Signatures[sigi]
		}
		sigi++
		return
	}
	nextPreimage := func() (pi Preimage) {
		if prei < len(sp.Preimages) {
			pi = sp.Preimages[prei]
		}
		prei++
		return
	}
	var rec func(SpendPolicy)
	rec = func(p SpendPolicy) {
		switch pt := p.Type.(type) {
		case PolicyTypePublicKey:
			nextSig().EncodeTo(e)
		case PolicyTypeHash:
			nextPreimage().EncodeTo(e)
		case PolicyTypeThreshold:
			for i := range pt.Of {
				rec(pt.Of[i])
			}
		case PolicyTypeUnlockConditions:
			for range pt.PublicKeys {
				nextSig().EncodeTo(e)
			}
		}
	}
	rec(sp.Policy)
}

// DecodeFrom implements encoding.DecoderFrom.
func (sp *SatisfiedPolicy) DecodeFrom(d *encoding.Decoder) {
	sp.Policy.DecodeFrom(d)
	if d.Err() != nil {
		return
	}
	sp.Signatures, sp.Preimages = nil, nil
	var rec func(SpendPolicy)
	rec = func(p SpendPolicy) {
		switch pt := p.Type.(type) {
		case PolicyTypePublicKey:
			var s Signature
			s.DecodeFrom(d)
			sp.Signatures = append(sp.Signatures, s)
		case PolicyTypeHash:
			var pi Preimage
			pi.DecodeFrom(d)
			sp.Preimages = append(sp.Preimages, pi)
		case PolicyTypeThreshold:
			for i := range pt.Of {
				rec(pt.Of[i])
			}
		case PolicyTypeUnlockConditions:
			for range pt.PublicKeys {
				var s Signature
				s.DecodeFrom(d)
				sp.Signatures = append(sp.Signatures, s)
			}
		}
	}
	rec(sp.Policy)
}
