package types

// Atomic swap (HTLC) policies. The full contract is a 1-of-2 threshold
// over two branches:
//
//	thresh(1, [
//	    thresh(2, [pk(claimant), h(sha256(secret))]),  // success path
//	    thresh(2, [pk(refunder), after(lockTime)]),    // refund path
//	])
//
// Funds locked at this policy's address can be claimed by the claimant
// by revealing the secret, or reclaimed by the refunder once lockTime
// has passed. When spending, only the branch being taken is revealed;
// the other branch is opacified, which keeps the policy's address
// unchanged while disclosing nothing about the unused path.

// AtomicSwapPolicy returns the full two-branch atomic swap policy. Use
// its address when funding the swap.
func AtomicSwapPolicy(claimant, refunder PublicKey, lockTime uint64, secretHash Hash256) SpendPolicy {
	success := SpendPolicy{PolicyTypeThreshold{
		N:  2,
		Of: []SpendPolicy{PolicyPublicKey(claimant), PolicyHash(secretHash)},
	}}
	refund := SpendPolicy{PolicyTypeThreshold{
		N:  2,
		Of: []SpendPolicy{PolicyPublicKey(refunder), PolicyAfter(lockTime)},
	}}
	return SpendPolicy{PolicyTypeThreshold{
		N:  1,
		Of: []SpendPolicy{success, refund},
	}}
}

// AtomicSwapSuccessPolicy returns the spend form of the swap policy with
// the refund branch opacified. Attach it to the input when claiming with
// the secret.
func AtomicSwapSuccessPolicy(claimant, refunder PublicKey, lockTime uint64, secretHash Hash256) SpendPolicy {
	p := AtomicSwapPolicy(claimant, refunder, lockTime, secretHash)
	pt := p.Type.(PolicyTypeThreshold)
	pt.Of[1] = pt.Of[1].Opacify()
	return SpendPolicy{pt}
}

// AtomicSwapRefundPolicy returns the spend form of the swap policy with
// the success branch opacified. Attach it to the input when reclaiming
// after the timelock.
func AtomicSwapRefundPolicy(claimant, refunder PublicKey, lockTime uint64, secretHash Hash256) SpendPolicy {
	p := AtomicSwapPolicy(claimant, refunder, lockTime, secretHash)
	pt := p.Type.(PolicyTypeThreshold)
	pt.Of[0] = pt.Of[0].Opacify()
	return SpendPolicy{pt}
}
