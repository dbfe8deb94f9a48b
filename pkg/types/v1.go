package types

import (
	"github.com/suffix-labs/sia-wallet/pkg/encoding"
)

// A V1SiacoinInput spends a v1 siacoin output by revealing the unlock
// conditions behind its address.
type V1SiacoinInput struct {
	ParentID         SiacoinOutputID  `json:"parentID"`
	UnlockConditions UnlockConditions `json:"unlockConditions"`
}

// EncodeTo implements encoding.EncoderTo.
func (si V1SiacoinInput) EncodeTo(e *encoding.Encoder) {
	si.ParentID.EncodeTo(e)
	si.UnlockConditions.EncodeTo(e)
}

// A V1SiafundInput spends a v1 siafund output.
type V1SiafundInput struct {
	ParentID         SiafundOutputID  `json:"parentID"`
	UnlockConditions UnlockConditions `json:"unlockConditions"`
	ClaimAddress     Address          `json:"claimAddress"`
}

// EncodeTo implements encoding.EncoderTo.
func (si V1SiafundInput) EncodeTo(e *encoding.Encoder) {
	si.ParentID.EncodeTo(e)
	si.UnlockConditions.EncodeTo(e)
	si.ClaimAddress.EncodeTo(e)
}

// A FileContract is a v1 storage agreement. The payout is distributed
// to the valid or missed proof outputs depending on whether a storage
// proof appears within the proof window.
type FileContract struct {
	Filesize           uint64          `json:"filesize"`
	FileMerkleRoot     Hash256         `json:"fileMerkleRoot"`
	WindowStart        uint64          `json:"windowStart"`
	WindowEnd          uint64          `json:"windowEnd"`
	Payout             Currency        `json:"payout"`
	ValidProofOutputs  []SiacoinOutput `json:"validProofOutputs"`
	MissedProofOutputs []SiacoinOutput `json:"missedProofOutputs"`
	UnlockHash         Hash256         `json:"unlockHash"`
	RevisionNumber     uint64          `json:"revisionNumber"`
}

// EncodeTo implements encoding.EncoderTo.
func (fc FileContract) EncodeTo(e *encoding.Encoder) {
	e.WriteUint64(fc.Filesize)
	fc.FileMerkleRoot.EncodeTo(e)
	e.WriteUint64(fc.WindowStart)
	e.WriteUint64(fc.WindowEnd)
	fc.Payout.V1EncodeTo(e)
	e.WritePrefix(len(fc.ValidProofOutputs))
	for _, sco := range fc.ValidProofOutputs {
		sco.V1EncodeTo(e)
	}
	e.WritePrefix(len(fc.MissedProofOutputs))
	for _, sco := range fc.MissedProofOutputs {
		sco.V1EncodeTo(e)
	}
	fc.UnlockHash.EncodeTo(e)
	e.WriteUint64(fc.RevisionNumber)
}

// A FileContractRevision updates a v1 file contract. The payout is
// fixed at formation and is not part of the revision's encoding.
type FileContractRevision struct {
	ParentID         FileContractID   `json:"parentID"`
	UnlockConditions UnlockConditions `json:"unlockConditions"`
	FileContract
}

// EncodeTo implements encoding.EncoderTo.
func (fcr FileContractRevision) EncodeTo(e *encoding.Encoder) {
	fcr.ParentID.EncodeTo(e)
	fcr.UnlockConditions.EncodeTo(e)
	e.WriteUint64(fcr.RevisionNumber)
	e.WriteUint64(fcr.Filesize)
	fcr.FileMerkleRoot.EncodeTo(e)
	e.WriteUint64(fcr.WindowStart)
	e.WriteUint64(fcr.WindowEnd)
	e.WritePrefix(len(fcr.ValidProofOutputs))
	for _, sco := range fcr.ValidProofOutputs {
		sco.V1EncodeTo(e)
	}
	e.WritePrefix(len(fcr.MissedProofOutputs))
	for _, sco := range fcr.MissedProofOutputs {
		sco.V1EncodeTo(e)
	}
	fcr.UnlockHash.EncodeTo(e)
}

// A StorageProof asserts possession of a randomly selected leaf of a
// v1 contract's file.
type StorageProof struct {
	ParentID FileContractID `json:"parentID"`
	Leaf     Leaf           `json:"leaf"`
	Proof    []Hash256      `json:"proof"`
}

// EncodeTo implements encoding.EncoderTo.
func (sp StorageProof) EncodeTo(e *encoding.Encoder) {
	sp.ParentID.EncodeTo(e)
	e.Write(sp.Leaf[:])
	encoding.EncodeSlice(e, sp.Proof)
}

// CoveredFields indicates which fields of a v1 transaction a signature
// covers. Indices refer to positions within the respective slices.
type CoveredFields struct {
	WholeTransaction      bool     `json:"wholeTransaction,omitempty"`
	SiacoinInputs         []uint64 `json:"siacoinInputs,omitempty"`
	SiacoinOutputs        []uint64 `json:"siacoinOutputs,omitempty"`
	FileContracts         []uint64 `json:"fileContracts,omitempty"`
	FileContractRevisions []uint64 `json:"fileContractRevisions,omitempty"`
	StorageProofs         []uint64 `json:"storageProofs,omitempty"`
	SiafundInputs         []uint64 `json:"siafundInputs,omitempty"`
	SiafundOutputs        []uint64 `json:"siafundOutputs,omitempty"`
	MinerFees             []uint64 `json:"minerFees,omitempty"`
	ArbitraryData         []uint64 `json:"arbitraryData,omitempty"`
	Signatures            []uint64 `json:"signatures,omitempty"`
}

// A TransactionSignature signs a v1 transaction. Unlike v2, v1
// signatures are variable-length and live alongside the fields they
// cover rather than inside the inputs.
type TransactionSignature struct {
	ParentID       Hash256       `json:"parentID"`
	PublicKeyIndex uint64        `json:"publicKeyIndex"`
	Timelock       uint64        `json:"timelock,omitempty"`
	CoveredFields  CoveredFields `json:"coveredFields"`
	Signature      []byte        `json:"signature"`
}

// V1ArbitraryData is the arbitrary data of a v1 transaction: a list of
// independent byte payloads.
type V1ArbitraryData [][]byte

// EncodeTo implements encoding.EncoderTo. Each payload is written raw;
// only the outer list carries a length prefix.
func (ad V1ArbitraryData) EncodeTo(e *encoding.Encoder) {
	e.WritePrefix(len(ad))
	for _, b := range ad {
		e.Write(b)
	}
}

// A V1Transaction is a legacy transaction. The wallet constructs v2
// transactions only, but v1 transactions still appear in address
// histories and must be identified and inspected.
type V1Transaction struct {
	SiacoinInputs         []V1SiacoinInput       `json:"siacoinInputs,omitempty"`
	SiacoinOutputs        []SiacoinOutput        `json:"siacoinOutputs,omitempty"`
	FileContracts         []FileContract         `json:"fileContracts,omitempty"`
	FileContractRevisions []FileContractRevision `json:"fileContractRevisions,omitempty"`
	StorageProofs         []StorageProof         `json:"storageProofs,omitempty"`
	SiafundInputs         []V1SiafundInput       `json:"siafundInputs,omitempty"`
	SiafundOutputs        []SiafundOutput        `json:"siafundOutputs,omitempty"`
	MinerFees             []Currency             `json:"minerFees,omitempty"`
	ArbitraryData         V1ArbitraryData        `json:"arbitraryData,omitempty"`
	Signatures            []TransactionSignature `json:"signatures,omitempty"`
}

// encodeSansSigs writes every field except the signatures. The v1 txid
// is the hash of this encoding, with no domain separator; v1 predates
// distinguisher tags.
func (txn V1Transaction) encodeSansSigs(e *encoding.Encoder) {
	encoding.EncodeSlice(e, txn.SiacoinInputs)
	e.WritePrefix(len(txn.SiacoinOutputs))
	for _, sco := range txn.SiacoinOutputs {
		sco.V1EncodeTo(e)
	}
	encoding.EncodeSlice(e, txn.FileContracts)
	encoding.EncodeSlice(e, txn.FileContractRevisions)
	encoding.EncodeSlice(e, txn.StorageProofs)
	encoding.EncodeSlice(e, txn.SiafundInputs)
	e.WritePrefix(len(txn.SiafundOutputs))
	for _, sfo := range txn.SiafundOutputs {
		sfo.V1EncodeTo(e)
	}
	e.WritePrefix(len(txn.MinerFees))
	for _, fee := range txn.MinerFees {
		fee.V1EncodeTo(e)
	}
	txn.ArbitraryData.EncodeTo(e)
}

// ID returns the transaction's identifier.
func (txn V1Transaction) ID() TransactionID {
	h := encoding.NewHasher()
	txn.encodeSansSigs(h.E)
	return TransactionID(h.Sum())
}
