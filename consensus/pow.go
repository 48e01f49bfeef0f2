package consensus

import (
	"github.com/holiman/uint256"

	"github.com/xlc/dotpal-ctf/crypto"
)

// PowPreimage returns who || nonce u32le || difficulty u32le || work.
func PowPreimage(who AccountID, nonce uint32, difficulty uint32, work Work) []byte {
	out := make([]byte, 0, POW_PREIMAGE_BYTES)
	out = append(out, who[:]...)
	out = AppendU32le(out, nonce)
	out = AppendU32le(out, difficulty)
	out = append(out, work[:]...)
	return out
}

// ChallengeDigest hashes the PoW preimage with p.
func ChallengeDigest(p crypto.Hasher, who AccountID, nonce uint32, difficulty uint32, work Work) [32]byte {
	return p.Sum256(PowPreimage(who, nonce, difficulty, work))
}

// DigestValue interprets a digest as a little-endian unsigned 256-bit integer.
func DigestValue(digest [32]byte) *uint256.Int {
	var be [32]byte
	for i := 0; i < 32; i++ {
		be[i] = digest[31-i]
	}
	return new(uint256.Int).SetBytes32(be[:])
}

// PowTarget returns 2^(256-difficulty) for difficulty < 256 and 1 otherwise.
// Difficulty 0 shifts out of range and yields a zero target.
func PowTarget(difficulty uint32) *uint256.Int {
	if difficulty >= 256 {
		return uint256.NewInt(1)
	}
	if difficulty == 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Lsh(uint256.NewInt(1), uint(256-difficulty))
}

// VerifyPow reports whether the challenge digest falls strictly below the difficulty target.
//
// Callers validate the difficulty range; difficulty 256 is near-impossible (only an all-zero
// digest passes).
func VerifyPow(p crypto.Hasher, who AccountID, nonce uint32, difficulty uint32, work Work) bool {
	digest := ChallengeDigest(p, who, nonce, difficulty, work)
	return DigestValue(digest).Lt(PowTarget(difficulty))
}

// ValidateDifficulty enforces the submission range [MIN_DIFFICULTY, MAX_DIFFICULTY].
func ValidateDifficulty(difficulty uint32) error {
	if difficulty < MIN_DIFFICULTY || difficulty > MAX_DIFFICULTY {
		return txerr(CTF_ERR_INVALID_DIFFICULTY, "difficulty out of range")
	}
	return nil
}
