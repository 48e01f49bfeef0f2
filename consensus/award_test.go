package consensus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAwardTiers(t *testing.T) {
	require.Equal(t, uint64(32), Award(1))
	require.Equal(t, uint64(640), Award(20))
	require.Equal(t, uint64(672), Award(21))
	require.Equal(t, uint64(8192), Award(256))
	require.Equal(t, uint64(800), LOTTERY_BONUS)
}

func TestAwardStrictlyIncreasingInRange(t *testing.T) {
	prev := Award(MIN_DIFFICULTY)
	for d := MIN_DIFFICULTY + 1; d <= MAX_DIFFICULTY; d++ {
		cur := Award(d)
		require.Greater(t, cur, prev, "difficulty=%d", d)
		prev = cur
	}
}

func TestAwardTruncatesHighBits(t *testing.T) {
	require.Equal(t, Award(20), Award(65536+20))
	require.Equal(t, uint64(0), Award(65536))
	require.Equal(t, uint64(math.MaxUint16)<<AWARD_SHIFT, Award(math.MaxUint32))
}

func TestSaturatingAdd(t *testing.T) {
	require.Equal(t, uint64(5), SaturatingAdd(2, 3))
	require.Equal(t, uint64(math.MaxUint64), SaturatingAdd(math.MaxUint64-1, 640))
	require.Equal(t, uint64(math.MaxUint64), SaturatingAdd(math.MaxUint64, math.MaxUint64))
}

func TestChallengeNonce(t *testing.T) {
	n, err := ChallengeNonce(7)
	require.NoError(t, err)
	require.Equal(t, uint32(7), n)

	n, err = ChallengeNonce(math.MaxUint32)
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), n)

	_, err = ChallengeNonce(math.MaxUint32 + 1)
	require.ErrorIs(t, err, ErrBadProof)
}
