package types

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// v2ReplayPrefix is prepended to v2 signature hashes so that a v2
// signature can never be replayed in a v1 context.
const v2ReplayPrefix = 2

// A StateElement locates an element within the chain's state
// accumulator.
type StateElement struct {
	LeafIndex   uint64    `json:"leafIndex"`
	MerkleProof []Hash256 `json:"merkleProof,omitempty"`
}

// EncodeTo implements encoding.EncoderTo.
func (se StateElement) EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(se.LeafIndex)
	encoding.EncodeSlice(e, se.MerkleProof)
}

// DecodeFrom implements encoding.DecoderFrom.
func (se *StateElement) DecodeFrom(d *encoding.Decoder) {
	se.LeafIndex = d.ReadUint64()
	encoding.DecodeSlice(d, &se.MerkleProof)
}

// A SiacoinOutput is the recipient of some siacoins: a value and the
// address whose policy must be satisfied to spend it.
type SiacoinOutput struct {
	Value   Currency `json:"value"`
	Address Address  `json:"address"`
}

// EncodeTo implements encoding.EncoderTo, using v2 currency encoding.
func (sco SiacoinOutput) EncodeTo(e *encoding.Encoder) {
	sco.Value.V2EncodeTo(e)
	sco.Address.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (sco *SiacoinOutput) DecodeFrom(d *encoding.Decoder) {
	sco.Value.V2DecodeFrom(d)
	sco.Address.DecodeFrom(d)
}

// V1EncodeTo writes the v1 encoding of sco.
func (sco SiacoinOutput) V1EncodeTo(e *encoding.Encoder) {
	sco.Value.V1EncodeTo(e)
	sco.Address.EncodeTo(e)
}

// A SiafundOutput is the recipient of some siafunds. Unlike siacoins,
// siafund values are small enough for a uint64.
type SiafundOutput struct {
	Value   uint64  `json:"value"`
	Address Address `json:"address"`
}

// EncodeTo implements encoding.EncoderTo, using v2 encoding.
func (sfo SiafundOutput) EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(sfo.Value)
	sfo.Address.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (sfo *SiafundOutput) DecodeFrom(d *encoding.Decoder) {
	sfo.Value = d.ReadUint64()
	sfo.Address.DecodeFrom(d)
}

// V1EncodeTo writes the v1 encoding of sfo, which carries the value as a
// v1 currency.
func (sfo SiafundOutput) V1EncodeTo(e *encoding.Encoder) {
	NewCurrency64(sfo.Value).V1EncodeTo(e)
	sfo.Address.EncodeTo(e)
}

// A SiacoinElement is a record of a siacoin output within the state
// accumulator; in UTXO terms, a spendable coin.
type SiacoinElement struct {
	ID             SiacoinOutputID `json:"id"`
	StateElement   StateElement    `json:"stateElement"`
	SiacoinOutput  SiacoinOutput   `json:"siacoinOutput"`
	MaturityHeight uint64          `json:"maturityHeight"`
}

// EncodeTo implements encoding.EncoderTo.
func (sce SiacoinElement) EncodeTo(e *encoding.Encoder) {
	sce.StateElement.EncodeTo(e)
	sce.ID.EncodeTo(e)
	sce.SiacoinOutput.EncodeTo(e)
	e.WriteUint64(sce.MaturityHeight)
}

// DecodeFrom implements encoding.DecoderFrom.
func (sce *SiacoinElement) DecodeFrom(d *encoding.Decoder) {
	sce.StateElement.DecodeFrom(d)
	sce.ID.DecodeFrom(d)
	sce.SiacoinOutput.DecodeFrom(d)
	sce.MaturityHeight = d.ReadUint64()
}

// A SiafundElement is a record of a siafund output within the state
// accumulator.
type SiafundElement struct {
	ID            SiafundOutputID `json:"id"`
	StateElement  StateElement    `json:"stateElement"`
	SiafundOutput SiafundOutput   `json:"siafundOutput"`
	ClaimStart    Currency        `json:"claimStart"`
}

// EncodeTo implements encoding.EncoderTo.
func (sfe SiafundElement) EncodeTo(e *encoding.Encoder) {
	sfe.StateElement.EncodeTo(e)
	sfe.SiafundOutput.EncodeTo(e)
	sfe.ClaimStart.V2EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (sfe *SiafundElement) DecodeFrom(d *encoding.Decoder) {
	sfe.StateElement.DecodeFrom(d)
	sfe.SiafundOutput.DecodeFrom(d)
	sfe.ClaimStart.V2DecodeFrom(d)
}

// A SiacoinInput spends an unspent SiacoinElement, supplying the policy
// of the spent output's address and the evidence satisfying it.
type SiacoinInput struct {
	Parent          SiacoinElement  `json:"parent"`
	SatisfiedPolicy SatisfiedPolicy `json:"satisfiedPolicy"`
}

// EncodeTo implements encoding.EncoderTo.
func (si SiacoinInput) EncodeTo(e *encoding.Encoder) {
	si.Parent.EncodeTo(e)
	si.SatisfiedPolicy.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (si *SiacoinInput) DecodeFrom(d *encoding.Decoder) {
	si.Parent.DecodeFrom(d)
	si.SatisfiedPolicy.DecodeFrom(d)
}

// A SiafundInput spends an unspent SiafundElement. The claim address
// receives the siacoins that have accrued to the spent siafunds.
type SiafundInput struct {
	Parent          SiafundElement  `json:"parent"`
	ClaimAddress    Address         `json:"claimAddress"`
	SatisfiedPolicy SatisfiedPolicy `json:"satisfiedPolicy"`
}

// EncodeTo implements encoding.EncoderTo.
func (si SiafundInput) EncodeTo(e *encoding.Encoder) {
	si.Parent.EncodeTo(e)
	si.ClaimAddress.EncodeTo(e)
	si.SatisfiedPolicy.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (si *SiafundInput) DecodeFrom(d *encoding.Decoder) {
	si.Parent.DecodeFrom(d)
	si.ClaimAddress.DecodeFrom(d)
	si.SatisfiedPolicy.DecodeFrom(d)
}

// An Attestation associates an arbitrary key/value pair with an
// identity, e.g. a host announcing its network address.
type Attestation struct {
	PublicKey PublicKey `json:"publicKey"`
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	Signature Signature `json:"signature"`
}

// EncodeTo implements encoding.EncoderTo.
func (a Attestation) EncodeTo(e *encoding.Encoder) {
	a.PublicKey.EncodeTo(e)
	e.WriteString(a.Key)
	e.WriteBytes(a.Value)
	a.Signature.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (a *Attestation) DecodeFrom(d *encoding.Decoder) {
	a.PublicKey.DecodeFrom(d)
	a.Key = d.ReadString()
	a.Value = d.ReadBytes()
	a.Signature.DecodeFrom(d)
}

// A V2FileContract is an agreement between a renter and a host to store
// a file for a period of time.
type V2FileContract struct {
	Capacity         uint64        `json:"capacity"`
	Filesize         uint64        `json:"filesize"`
	FileMerkleRoot   Hash256       `json:"fileMerkleRoot"`
	ProofHeight      uint64        `json:"proofHeight"`
	ExpirationHeight uint64        `json:"expirationHeight"`
	RenterOutput     SiacoinOutput `json:"renterOutput"`
	HostOutput       SiacoinOutput `json:"hostOutput"`
	MissedHostValue  Currency      `json:"missedHostValue"`
	TotalCollateral  Currency      `json:"totalCollateral"`
	RenterPublicKey  PublicKey     `json:"renterPublicKey"`
	HostPublicKey    PublicKey     `json:"hostPublicKey"`
	RevisionNumber   uint64        `json:"revisionNumber"`
	RenterSignature  Signature     `json:"renterSignature"`
	HostSignature    Signature     `json:"hostSignature"`
}

func (fc V2FileContract) withNilSigs() V2FileContract {
	fc.RenterSignature = Signature{}
	fc.HostSignature = Signature{}
	return fc
}

// EncodeTo implements encoding.EncoderTo.
func (fc V2FileContract) EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(fc.Capacity)
	e.WriteUint64(fc.Filesize)
	fc.FileMerkleRoot.EncodeTo(e)
	e.WriteUint64(fc.ProofHeight)
	e.WriteUint64(fc.ExpirationHeight)
	fc.RenterOutput.EncodeTo(e)
	fc.HostOutput.EncodeTo(e)
	fc.MissedHostValue.V2EncodeTo(e)
	fc.TotalCollateral.V2EncodeTo(e)
	fc.RenterPublicKey.EncodeTo(e)
	fc.HostPublicKey.EncodeTo(e)
	e.WriteUint64(fc.RevisionNumber)
	fc.RenterSignature.EncodeTo(e)
	fc.HostSignature.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (fc *V2FileContract) DecodeFrom(d *encoding.Decoder) {
	fc.Capacity = d.ReadUint64()
	fc.Filesize = d.ReadUint64()
	fc.FileMerkleRoot.DecodeFrom(d)
	fc.ProofHeight = d.ReadUint64()
	fc.ExpirationHeight = d.ReadUint64()
	fc.RenterOutput.DecodeFrom(d)
	fc.HostOutput.DecodeFrom(d)
	fc.MissedHostValue.V2DecodeFrom(d)
	fc.TotalCollateral.V2DecodeFrom(d)
	fc.RenterPublicKey.DecodeFrom(d)
	fc.HostPublicKey.DecodeFrom(d)
	fc.RevisionNumber = d.ReadUint64()
	fc.RenterSignature.DecodeFrom(d)
	fc.HostSignature.DecodeFrom(d)
}

// A V2FileContractElement is a record of a v2 file contract within the
// state accumulator.
type V2FileContractElement struct {
	ID             FileContractID `json:"id"`
	StateElement   StateElement   `json:"stateElement"`
	V2FileContract V2FileContract `json:"v2FileContract"`
}

// EncodeTo implements encoding.EncoderTo.
func (fce V2FileContractElement) EncodeTo(e *encoding.Encoder) {
	fce.StateElement.EncodeTo(e)
	fce.ID.EncodeTo(e)
	fce.V2FileContract.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (fce *V2FileContractElement) DecodeFrom(d *encoding.Decoder) {
	fce.StateElement.DecodeFrom(d)
	fce.ID.DecodeFrom(d)
	fce.V2FileContract.DecodeFrom(d)
}

// A ChainIndexElement is a record of a ChainIndex within the state
// accumulator.
type ChainIndexElement struct {
	StateElement StateElement `json:"stateElement"`
	ChainIndex   ChainIndex   `json:"chainIndex"`
}

// EncodeTo implements encoding.EncoderTo.
func (cie ChainIndexElement) EncodeTo(e *encoding.Encoder) {
	cie.StateElement.EncodeTo(e)
	cie.ChainIndex.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (cie *ChainIndexElement) DecodeFrom(d *encoding.Decoder) {
	cie.StateElement.DecodeFrom(d)
	cie.ChainIndex.DecodeFrom(d)
}

// A Leaf is a 64-byte segment of a contract's file data.
type Leaf [64]byte

// MarshalText implements encoding.TextMarshaler.
func (l Leaf) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(l[:])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Leaf) UnmarshalText(b []byte) error {
	return decodeHexArray(l[:], b, "Leaf")
}

// A V2FileContractRenewal renews a file contract, carrying value over
// from the final revision into a new contract.
type V2FileContractRenewal struct {
	FinalRevision   V2FileContract `json:"finalRevision"`
	NewContract     V2FileContract `json:"newContract"`
	RenterRollover  Currency       `json:"renterRollover"`
	HostRollover    Currency       `json:"hostRollover"`
	RenterSignature Signature      `json:"renterSignature"`
	HostSignature   Signature      `json:"hostSignature"`
}

// EncodeTo implements encoding.EncoderTo.
func (ren V2FileContractRenewal) EncodeTo(e *encoding.Encoder) {
	ren.FinalRevision.EncodeTo(e)
	ren.NewContract.EncodeTo(e)
	ren.RenterRollover.V2EncodeTo(e)
	ren.HostRollover.V2EncodeTo(e)
	ren.RenterSignature.EncodeTo(e)
	ren.HostSignature.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (ren *V2FileContractRenewal) DecodeFrom(d *encoding.Decoder) {
	ren.FinalRevision.DecodeFrom(d)
	ren.NewContract.DecodeFrom(d)
	ren.RenterRollover.V2DecodeFrom(d)
	ren.HostRollover.V2DecodeFrom(d)
	ren.RenterSignature.DecodeFrom(d)
	ren.HostSignature.DecodeFrom(d)
}

// A V2StorageProof resolves a file contract by proving that the host is
// still storing the file.
type V2StorageProof struct {
	ProofIndex ChainIndexElement `json:"proofIndex"`
	Leaf       Leaf              `json:"leaf"`
	Proof      []Hash256         `json:"proof"`
}

// EncodeTo implements encoding.EncoderTo.
func (sp V2StorageProof) EncodeTo(e *encoding.Encoder) {
	sp.ProofIndex.EncodeTo(e)
	e.Write(sp.Leaf[:])
	encoding.EncodeSlice(e, sp.Proof)
}

// DecodeFrom implements encoding.DecoderFrom.
func (sp *V2StorageProof) DecodeFrom(d *encoding.Decoder) {
	sp.ProofIndex.DecodeFrom(d)
	d.ReadFull(sp.Leaf[:])
	encoding.DecodeSlice(d, &sp.Proof)
}

// A V2FileContractFinalization sets a contract's revision number to its
// maximum, preventing further revisions.
type V2FileContractFinalization V2FileContract

// EncodeTo implements encoding.EncoderTo.
func (fin V2FileContractFinalization) EncodeTo(e *encoding.Encoder) {
	V2FileContract(fin).EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (fin *V2FileContractFinalization) DecodeFrom(d *encoding.Decoder) {
	(*V2FileContract)(fin).DecodeFrom(d)
}

// A V2FileContractExpiration resolves an expired contract. It carries
// no data; the expiry is evident from the contract itself.
type V2FileContractExpiration struct{}

// EncodeTo implements encoding.EncoderTo.
func (V2FileContractExpiration) EncodeTo(e *encoding.Encoder) {}

// DecodeFrom implements encoding.DecoderFrom.
func (*V2FileContractExpiration) DecodeFrom(d *encoding.Decoder) {}

// A V2FileContractResolutionType is one of the ways a file contract can
// be resolved: renewal, storage proof, finalization, or expiration.
type V2FileContractResolutionType interface {
	isV2FileContractResolution()
}

func (*V2FileContractRenewal) isV2FileContractResolution()      {}
func (*V2StorageProof) isV2FileContractResolution()             {}
func (*V2FileContractFinalization) isV2FileContractResolution() {}
func (*V2FileContractExpiration) isV2FileContractResolution()   {}

// A V2FileContractResolution closes out a file contract's lifecycle.
type V2FileContractResolution struct {
	Parent     V2FileContractElement        `json:"parent"`
	Resolution V2FileContractResolutionType `json:"resolution"`
}

func (res V2FileContractResolution) withNilSigs() V2FileContractResolution {
	switch r := res.Resolution.(type) {
	case *V2FileContractRenewal:
		ren := *r
		ren.FinalRevision = ren.FinalRevision.withNilSigs()
		ren.NewContract = ren.NewContract.withNilSigs()
		ren.RenterSignature = Signature{}
		ren.HostSignature = Signature{}
		res.Resolution = &ren
	case *V2StorageProof:
		sp := *r
		sp.ProofIndex.StateElement.MerkleProof = nil
		res.Resolution = &sp
	case *V2FileContractFinalization:
		fin := V2FileContract(*r).withNilSigs()
		res.Resolution = (*V2FileContractFinalization)(&fin)
	}
	return res
}

func (res V2FileContractResolution) encodeType(e *encoding.Encoder) {
	switch r := res.Resolution.(type) {
	case *V2FileContractRenewal:
		e.WriteUint8(0)
		r.EncodeTo(e)
	case *V2StorageProof:
		e.WriteUint8(1)
		r.EncodeTo(e)
	case *V2FileContractFinalization:
		e.WriteUint8(2)
		r.EncodeTo(e)
	case *V2FileContractExpiration:
		e.WriteUint8(3)
	default:
		panic(fmt.Sprintf("unhandled resolution type %T", r))
	}
}

// EncodeTo implements encoding.EncoderTo.
func (res V2FileContractResolution) EncodeTo(e *encoding.Encoder) {
	res.Parent.EncodeTo(e)
	res.encodeType(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (res *V2FileContractResolution) DecodeFrom(d *encoding.Decoder) {
	res.Parent.DecodeFrom(d)
	switch t := d.ReadUint8(); t {
	case 0:
		r := new(V2FileContractRenewal)
		r.DecodeFrom(d)
		res.Resolution = r
	case 1:
		r := new(V2StorageProof)
		r.DecodeFrom(d)
		res.Resolution = r
	case 2:
		r := new(V2FileContractFinalization)
		r.DecodeFrom(d)
		res.Resolution = r
	case 3:
		res.Resolution = new(V2FileContractExpiration)
	default:
		d.SetErr(fmt.Errorf("unknown resolution type %d", t))
	}
}

// MarshalJSON implements json.Marshaler.
func (res V2FileContractResolution) MarshalJSON() ([]byte, error) {
	var typ string
	switch res.Resolution.(type) {
	case *V2FileContractRenewal:
		typ = "renewal"
	case *V2StorageProof:
		typ = "storageProof"
	case *V2FileContractFinalization:
		typ = "finalization"
	case *V2FileContractExpiration:
		typ = "expiration"
	default:
		return nil, fmt.Errorf("unhandled resolution type %T", res.Resolution)
	}
	return json.Marshal(struct {
		Parent     V2FileContractElement        `json:"parent"`
		Type       string                       `json:"type"`
		Resolution V2FileContractResolutionType `json:"resolution"`
	}{res.Parent, typ, res.Resolution})
}

// UnmarshalJSON implements json.Unmarshaler.
func (res *V2FileContractResolution) UnmarshalJSON(b []byte) error {
	var raw struct {
		Parent     V2FileContractElement `json:"parent"`
		Type       string                `json:"type"`
		Resolution json.RawMessage       `json:"resolution"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	res.Parent = raw.Parent
	switch raw.Type {
	case "renewal":
		res.Resolution = new(V2FileContractRenewal)
	case "storageProof":
		res.Resolution = new(V2StorageProof)
	case "finalization":
		res.Resolution = new(V2FileContractFinalization)
	case "expiration":
		res.Resolution = new(V2FileContractExpiration)
	default:
		return fmt.Errorf("unknown resolution type %q", raw.Type)
	}
	if raw.Type == "expiration" {
		return nil
	}
	return json.Unmarshal(raw.Resolution, res.Resolution)
}

// A V2FileContractRevision updates the state of an existing file
// contract.
type V2FileContractRevision struct {
	Parent   V2FileContractElement `json:"parent"`
	Revision V2FileContract        `json:"revision"`
}

// EncodeTo implements encoding.EncoderTo.
func (rev V2FileContractRevision) EncodeTo(e *encoding.Encoder) {
	rev.Parent.EncodeTo(e)
	rev.Revision.EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (rev *V2FileContractRevision) DecodeFrom(d *encoding.Decoder) {
	rev.Parent.DecodeFrom(d)
	rev.Revision.DecodeFrom(d)
}

// ArbitraryData is an opaque payload carried by a transaction. It has no
// consensus meaning. The walletd API transmits it as base64.
type ArbitraryData []byte

// EncodeTo implements encoding.EncoderTo.
func (ad ArbitraryData) EncodeTo(e *encoding.Encoder) { e.WriteBytes(ad) }

// DecodeFrom implements encoding.DecoderFrom.
func (ad *ArbitraryData) DecodeFrom(d *encoding.Decoder) { *ad = d.ReadBytes() }

// MarshalJSON implements json.Marshaler.
func (ad ArbitraryData) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(ad))
}

// UnmarshalJSON implements json.Unmarshaler.
func (ad *ArbitraryData) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	*ad = decoded
	return nil
}

// A V2Transaction moves value between addresses and effects state
// changes: spending siacoin and siafund outputs, creating new ones,
// forming and resolving file contracts, and attesting arbitrary data.
// The ordering of inputs and outputs is part of the canonical encoding
// and therefore part of the transaction's identity.
type V2Transaction struct {
	SiacoinInputs           []SiacoinInput             `json:"siacoinInputs,omitempty"`
	SiacoinOutputs          []SiacoinOutput            `json:"siacoinOutputs,omitempty"`
	SiafundInputs           []SiafundInput             `json:"siafundInputs,omitempty"`
	SiafundOutputs          []SiafundOutput            `json:"siafundOutputs,omitempty"`
	FileContracts           []V2FileContract           `json:"fileContracts,omitempty"`
	FileContractRevisions   []V2FileContractRevision   `json:"fileContractRevisions,omitempty"`
	FileContractResolutions []V2FileContractResolution `json:"fileContractResolutions,omitempty"`
	Attestations            []Attestation              `json:"attestations,omitempty"`
	ArbitraryData           ArbitraryData              `json:"arbitraryData,omitempty"`
	NewFoundationAddress    *Address                   `json:"newFoundationAddress,omitempty"`
	MinerFee                Currency                   `json:"minerFee"`
}

// encodeSemantics writes the transaction's semantic encoding: inputs are
// reduced to the IDs of the outputs they spend, and contract signatures
// are elided. Signature hashes and transaction IDs are computed over
// this form, so everything a signature must cover is here and nothing
// malleable is.
func (txn V2Transaction) encodeSemantics(e *encoding.Encoder) {
	e.WritePrefix(len(txn.SiacoinInputs))
	for _, si := range txn.SiacoinInputs {
		si.Parent.ID.EncodeTo(e)
	}
	encoding.EncodeSlice(e, txn.SiacoinOutputs)
	e.WritePrefix(len(txn.SiafundInputs))
	for _, si := range txn.SiafundInputs {
		si.Parent.ID.EncodeTo(e)
	}
	encoding.EncodeSlice(e, txn.SiafundOutputs)
	e.WritePrefix(len(txn.FileContracts))
	for _, fc := range txn.FileContracts {
		fc.withNilSigs().EncodeTo(e)
	}
	e.WritePrefix(len(txn.FileContractRevisions))
	for _, rev := range txn.FileContractRevisions {
		rev.Parent.ID.EncodeTo(e)
		rev.Revision.withNilSigs().EncodeTo(e)
	}
	e.WritePrefix(len(txn.FileContractResolutions))
	for _, res := range txn.FileContractResolutions {
		res.Parent.ID.EncodeTo(e)
		res.withNilSigs().encodeType(e)
	}
	encoding.EncodeSlice(e, txn.Attestations)
	txn.ArbitraryData.EncodeTo(e)
	e.WriteBool(txn.NewFoundationAddress != nil)
	if txn.NewFoundationAddress != nil {
		txn.NewFoundationAddress.EncodeTo(e)
	}
	txn.MinerFee.V2EncodeTo(e)
}

// InputSigHash returns the hash that must be signed by each of the
// transaction's inputs. Every input of a v2 transaction signs the same
// whole-transaction digest; mutating any input, output, or fee, or
// reordering them, changes the hash.
func (txn V2Transaction) InputSigHash() Hash256 {
	h := encoding.NewHasher()
	h.WriteDistinguisher("sig/input")
	h.E.WriteUint8(v2ReplayPrefix)
	txn.encodeSemantics(h.E)
	return h.Sum()
}

// ID returns the transaction's identifier, the domain-separated hash of
// its semantic encoding.
func (txn V2Transaction) ID() TransactionID {
	h := encoding.NewHasher()
	h.WriteDistinguisher("id/transaction")
	txn.encodeSemantics(h.E)
	return TransactionID(h.Sum())
}

// SiacoinOutputID returns the ID of the i-th siacoin output created by
// the transaction with this ID.
func (txid TransactionID) SiacoinOutputID(i uint32) SiacoinOutputID {
	h := encoding.NewHasher()
	h.WriteDistinguisher("id/siacoinoutput")
	txid.EncodeTo(h.E)
	h.E.WriteUint64(uint64(i))
	return SiacoinOutputID(h.Sum())
}

// SiafundOutputID returns the ID of the i-th siafund output created by
// the transaction with this ID.
func (txid TransactionID) SiafundOutputID(i uint32) SiafundOutputID {
	h := encoding.NewHasher()
	h.WriteDistinguisher("id/siafundoutput")
	txid.EncodeTo(h.E)
	h.E.WriteUint64(uint64(i))
	return SiafundOutputID(h.Sum())
}

// EncodeTo implements encoding.EncoderTo. This is the full wire
// encoding, carrying satisfied policies and contract signatures; decode
// of a canonically encoded transaction re-encodes byte-identically.
func (txn V2Transaction) EncodeTo(e *encoding.Encoder) {
	encoding.EncodeSlice(e, txn.SiacoinInputs)
	encoding.EncodeSlice(e, txn.SiacoinOutputs)
	encoding.EncodeSlice(e, txn.SiafundInputs)
	encoding.EncodeSlice(e, txn.SiafundOutputs)
	encoding.EncodeSlice(e, txn.FileContracts)
	encoding.EncodeSlice(e, txn.FileContractRevisions)
	encoding.EncodeSlice(e, txn.FileContractResolutions)
	encoding.EncodeSlice(e, txn.Attestations)
	txn.ArbitraryData.EncodeTo(e)
	e.WriteBool(txn.NewFoundationAddress != nil)
	if txn.NewFoundationAddress != nil {
		txn.NewFoundationAddress.EncodeTo(e)
	}
	txn.MinerFee.V2EncodeTo(e)
}

// DecodeFrom implements encoding.DecoderFrom.
func (txn *V2Transaction) DecodeFrom(d *encoding.Decoder) {
	encoding.DecodeSlice(d, &txn.SiacoinInputs)
	encoding.DecodeSlice(d, &txn.SiacoinOutputs)
	encoding.DecodeSlice(d, &txn.SiafundInputs)
	encoding.DecodeSlice(d, &txn.SiafundOutputs)
	encoding.DecodeSlice(d, &txn.FileContracts)
	encoding.DecodeSlice(d, &txn.FileContractRevisions)
	encoding.DecodeSlice(d, &txn.FileContractResolutions)
	encoding.DecodeSlice(d, &txn.Attestations)
	txn.ArbitraryData.DecodeFrom(d)
	if d.ReadBool() {
		var addr Address
		addr.DecodeFrom(d)
		txn.NewFoundationAddress = &addr
	}
	txn.MinerFee.V2DecodeFrom(d)
}
