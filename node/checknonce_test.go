package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlc/dotpal-ctf/consensus"
)

type mapAccounts map[consensus.AccountID]uint64

func (m mapAccounts) AccountNonce(who consensus.AccountID) (uint64, error) { return m[who], nil }

func (m mapAccounts) SetAccountNonce(who consensus.AccountID, n uint64) error {
	m[who] = n
	return nil
}

type brokenAccounts struct{}

var errNonceRead = errors.New("nonce read failed")

func (brokenAccounts) AccountNonce(consensus.AccountID) (uint64, error) { return 0, errNonceRead }

func TestCheckNonce_ValidateCurrent(t *testing.T) {
	who := consensus.AccountID{1}
	accts := mapAccounts{who: 5}

	vt, val, err := CheckNonce{Nonce: 5}.Validate(accts, &who)
	require.NoError(t, err)
	require.Zero(t, vt.Priority)
	require.True(t, vt.Propagate)
	require.Empty(t, vt.Requires)
	require.Equal(t, [][]byte{consensus.NonceTag(who, 5)}, vt.Provides)
	require.Equal(t, Val{Who: who, Stored: 5}, val)
	require.Equal(t, uint64(5), accts[who], "validate must not mutate")
}

func TestCheckNonce_ValidateFuture(t *testing.T) {
	who := consensus.AccountID{1}
	accts := mapAccounts{who: 5}

	vt, _, err := CheckNonce{Nonce: 7}.Validate(accts, &who)
	require.NoError(t, err)
	require.Equal(t, [][]byte{consensus.NonceTag(who, 6)}, vt.Requires)
	require.Equal(t, [][]byte{consensus.NonceTag(who, 7)}, vt.Provides)
}

func TestCheckNonce_ValidateStale(t *testing.T) {
	who := consensus.AccountID{1}
	_, _, err := CheckNonce{Nonce: 4}.Validate(mapAccounts{who: 5}, &who)
	require.ErrorIs(t, err, consensus.ErrStale)
}

func TestCheckNonce_ValidateReadError(t *testing.T) {
	who := consensus.AccountID{1}
	_, _, err := CheckNonce{Nonce: 0}.Validate(brokenAccounts{}, &who)
	require.ErrorIs(t, err, errNonceRead)
}

func TestCheckNonce_PrepareIncrements(t *testing.T) {
	who := consensus.AccountID{1}
	accts := mapAccounts{who: 5}
	g := CheckNonce{Nonce: 5}
	_, val, err := g.Validate(accts, &who)
	require.NoError(t, err)

	pre, err := g.Prepare(accts, val)
	require.NoError(t, err)
	require.True(t, pre.NonceChecked)
	require.False(t, pre.Refund)
	require.Equal(t, uint64(6), accts[who])
	require.Zero(t, g.PostDispatch(pre))
}

func TestCheckNonce_PrepareFuture(t *testing.T) {
	who := consensus.AccountID{1}
	accts := mapAccounts{who: 5}
	g := CheckNonce{Nonce: 6}
	_, val, err := g.Validate(accts, &who)
	require.NoError(t, err)

	_, err = g.Prepare(accts, val)
	require.ErrorIs(t, err, consensus.ErrFuture)
	require.Equal(t, uint64(5), accts[who])
}

func TestCheckNonce_UnsignedPassThrough(t *testing.T) {
	accts := mapAccounts{}
	g := CheckNonce{Nonce: 99}
	vt, val, err := g.Validate(accts, nil)
	require.NoError(t, err)
	require.Equal(t, ValidTransaction{}, vt)
	require.True(t, val.Refund)

	pre, err := g.Prepare(accts, val)
	require.NoError(t, err)
	require.True(t, pre.Refund)
	require.False(t, pre.NonceChecked)
	require.Empty(t, accts)
}
