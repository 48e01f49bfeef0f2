package consensus

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountIDTextForms(t *testing.T) {
	who := AccountID{1, 2, 3, 4}
	parsed, err := ParseAccountID(who.String())
	require.NoError(t, err)
	require.Equal(t, who, parsed)

	parsed, err = ParseAccountID(hex.EncodeToString(who[:]))
	require.NoError(t, err)
	require.Equal(t, who, parsed)

	_, err = ParseAccountID("")
	require.Error(t, err)
	_, err = ParseAccountID("2NEpo7TZRRrLZSi2U") // 12 bytes
	require.Error(t, err)
}

func TestAccountIDLess(t *testing.T) {
	require.True(t, AccountID{1}.Less(AccountID{2}))
	require.False(t, AccountID{2}.Less(AccountID{1}))
	require.False(t, AccountID{1}.Less(AccountID{1}))
	require.True(t, AccountID{0, 9}.Less(AccountID{1}))
}

func TestParseWork(t *testing.T) {
	w, err := ParseWork("0x" + hex.EncodeToString(make([]byte, 31)) + "ff")
	require.NoError(t, err)
	require.Equal(t, byte(0xff), w[31])
	require.Equal(t, hex.EncodeToString(w[:]), w.String())

	_, err = ParseWork("abcd")
	require.Error(t, err)
}

func TestScoreStateEncoding(t *testing.T) {
	require.Equal(t, []byte{1}, ScoreStateBytes(Disabled()))
	require.Equal(t, []byte{0, 0x80, 2, 0, 0, 0, 0, 0, 0}, ScoreStateBytes(Enabled(640)))

	for _, s := range []ScoreState{Enabled(0), Enabled(1312), Disabled()} {
		got, err := ParseScoreState(ScoreStateBytes(s))
		require.NoError(t, err)
		require.Equal(t, s, got)
	}

	_, err := ParseScoreState(nil)
	require.Error(t, err)
	_, err = ParseScoreState([]byte{2})
	require.Error(t, err)
	_, err = ParseScoreState([]byte{1, 0})
	require.Error(t, err)
	_, err = ParseScoreState([]byte{0, 1})
	require.Error(t, err)
}

func TestScoreStateAccessors(t *testing.T) {
	var zero ScoreState
	require.Equal(t, Enabled(0), zero)
	require.False(t, zero.IsDisabled())
	require.Equal(t, "Enabled(5)", Enabled(5).String())
	require.Equal(t, "Disabled", Disabled().String())
	require.Equal(t, uint64(0), Disabled().Points())
}
