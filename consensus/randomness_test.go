package consensus

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlc/dotpal-ctf/crypto"
)

func TestEvolveRandomnessKnownVector(t *testing.T) {
	got := EvolveRandomness(crypto.Blake2b256{}, [32]byte{}, 7)
	require.Equal(t,
		"7447217f44f65bf932b02c94e636c3ba70b5e6adbc683e2536e0dfd0deb09c5e",
		hex.EncodeToString(got[:]),
	)
	require.Equal(t, uint32(18), WinnerIndex(&got, 20))
}

func TestEvolveRandomnessDependsOnTick(t *testing.T) {
	h := crypto.Blake2b256{}
	seed := [32]byte{9}
	require.Equal(t, EvolveRandomness(h, seed, 1), EvolveRandomness(h, seed, 1))
	require.NotEqual(t, EvolveRandomness(h, seed, 1), EvolveRandomness(h, seed, 2))
}

func TestWinnerIndex(t *testing.T) {
	require.Equal(t, uint32(0), WinnerIndex(nil, 20))

	var r [32]byte
	require.Equal(t, uint32(0), WinnerIndex(&r, 0))

	r[0] = 0xff // high bytes are ignored
	r[31] = 45
	require.Equal(t, uint32(5), WinnerIndex(&r, 20))

	r[28] = 0x01
	require.Equal(t, uint32((1<<24+45)%7), WinnerIndex(&r, 7))
}
