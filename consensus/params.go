package consensus

const (
	MIN_DIFFICULTY uint32 = 1
	MAX_DIFFICULTY uint32 = 256

	// LOTTERY_DIFFICULTY is the fixed PoW difficulty of a lottery entry.
	LOTTERY_DIFFICULTY uint32 = 8
	// LOTTERY_THRESHOLD is the live entry count that triggers winner selection on the next tick.
	LOTTERY_THRESHOLD uint32 = 20
	// LOTTERY_BONUS_DIFFICULTY prices the winner bonus as a difficulty-25 solution.
	LOTTERY_BONUS_DIFFICULTY uint32 = 25

	AWARD_SHIFT = 5

	ACCOUNT_ID_BYTES = 32
	WORK_BYTES       = 32

	// POW_PREIMAGE_BYTES is who || nonce u32le || difficulty u32le || work.
	POW_PREIMAGE_BYTES = ACCOUNT_ID_BYTES + 4 + 4 + WORK_BYTES

	// NONCE_TAG_BYTES is who || nonce u64le.
	NONCE_TAG_BYTES = ACCOUNT_ID_BYTES + 8
)

// LOTTERY_BONUS is the number of points credited to a lottery winner (800).
var LOTTERY_BONUS = Award(LOTTERY_BONUS_DIFFICULTY)
