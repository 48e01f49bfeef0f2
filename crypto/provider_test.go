package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlake2b256KnownVector(t *testing.T) {
	got := Blake2b256{}.Sum256([]byte("abc"))
	require.Equal(t,
		"bddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319",
		hex.EncodeToString(got[:]),
	)
}

func TestSHA3_256KnownVector(t *testing.T) {
	got := SHA3_256{}.Sum256([]byte("abc"))
	require.Equal(t,
		"3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532",
		hex.EncodeToString(got[:]),
	)
}

func TestByName(t *testing.T) {
	h, ok := ByName("")
	require.True(t, ok)
	require.IsType(t, Blake2b256{}, h)

	h, ok = ByName(SHA3_256Name)
	require.True(t, ok)
	require.IsType(t, SHA3_256{}, h)

	_, ok = ByName("md5")
	require.False(t, ok)

	require.IsType(t, Blake2b256{}, Default())
}
