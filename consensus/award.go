package consensus

import "math"

// Award returns the points credited for a solution at difficulty.
//
// The difficulty is narrowed to uint16 before scaling, so values >= 65536 lose their high bits
// (65556 scores like 20). Submission range checks keep this out of reach for accepted solutions.
func Award(difficulty uint32) uint64 {
	narrowed := uint16(difficulty) // #nosec G115 -- truncation is part of the scoring rule.
	return uint64(narrowed) << AWARD_SHIFT
}

// SaturatingAdd returns a+b clamped at math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	if b > math.MaxUint64-a {
		return math.MaxUint64
	}
	return a + b
}

// ChallengeNonce narrows an account nonce to the u32 used in the PoW preimage.
func ChallengeNonce(nonce uint64) (uint32, error) {
	if nonce > math.MaxUint32 {
		return 0, txerr(CTF_ERR_BAD_PROOF, "nonce overflows u32")
	}
	return uint32(nonce), nil
}
