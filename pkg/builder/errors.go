// Package builder error types.
//
// Funding errors are recoverable: the caller can supply more candidate
// outputs and retry. Signing errors are fatal for the build attempt; a
// transaction whose evidence does not discharge every input policy is
// never emitted.
package builder

import (
	"fmt"

	"github.com/suffix-labs/sia-wallet/pkg/types"
)

// InsufficientFundsError is returned when the candidate outputs cannot
// cover the transaction's outputs plus miner fee.
type InsufficientFundsError struct {
	Required  types.Currency // Outputs plus miner fee, less inputs already attached
	Available types.Currency // Sum of the candidate outputs offered
}

func (e *InsufficientFundsError) Error() string {
	shortfall, _ := e.Required.SubWithUnderflow(e.Available)
	return fmt.Sprintf("insufficient funds: need %v H, have %v H (short %v H)", e.Required, e.Available, shortfall)
}

// Shortfall returns how many hastings the candidates fell short by.
func (e *InsufficientFundsError) Shortfall() types.Currency {
	shortfall, _ := e.Required.SubWithUnderflow(e.Available)
	return shortfall
}

// PolicyNotSatisfiedError is returned when the evidence gathered for an
// input does not discharge its spend policy.
type PolicyNotSatisfiedError struct {
	InputClass string            // "siacoin" or "siafund"
	InputIndex int               // Index of the input within its class
	Leaf       types.SpendPolicy // The unmet policy leaf
}

func (e *PolicyNotSatisfiedError) Error() string {
	return fmt.Sprintf("policy not satisfied for %s input %d: unmet leaf %v", e.InputClass, e.InputIndex, e.Leaf)
}

// KeyNotFoundError is returned by a Signer that does not hold the
// private key for the requested public key.
type KeyNotFoundError struct {
	PublicKey types.PublicKey
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("signer holds no key for %v", e.PublicKey)
}

// PreimageNotFoundError is returned by a PreimageSource that does not
// know the preimage of the requested hash.
type PreimageNotFoundError struct {
	Hash types.Hash256
}

func (e *PreimageNotFoundError) Error() string {
	return fmt.Sprintf("no known preimage for %v", e.Hash)
}

// SignerUnavailableError is returned when a Signer cannot be reached,
// e.g. a hardware device that has been unplugged.
type SignerUnavailableError struct {
	Cause error
}

func (e *SignerUnavailableError) Error() string {
	return fmt.Sprintf("signer unavailable: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *SignerUnavailableError) Unwrap() error { return e.Cause }

// InputIndexError is returned when an input index is out of range.
type InputIndexError struct {
	Index int
	Len   int
}

func (e *InputIndexError) Error() string {
	return fmt.Sprintf("input index %d out of range (%d inputs)", e.Index, e.Len)
}
