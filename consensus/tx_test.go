package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlc/dotpal-ctf/crypto"
)

func TestMarshalParseTxCalls(t *testing.T) {
	who := AccountID{7, 7, 7}
	txs := []*Tx{
		SignedTx(who, 3, SubmitSolution{Difficulty: 20, Work: Work{1, 2, 3}}),
		SignedTx(who, 4, Withdraw{}),
		SignedTx(who, 5, EnterLottery{Work: Work{9}}),
		{Nonce: 0, Call: Withdraw{}},
	}
	for _, tx := range txs {
		b, err := MarshalTx(tx)
		require.NoError(t, err)
		got, err := ParseTx(b)
		require.NoError(t, err)
		require.Equal(t, tx, got)
	}
}

func TestMarshalTxLayout(t *testing.T) {
	who := AccountID{0xaa}
	b, err := MarshalTx(SignedTx(who, 1, SubmitSolution{Difficulty: 2, Work: Work{3}}))
	require.NoError(t, err)
	require.Len(t, b, 1+1+32+8+1+4+32)
	require.Equal(t, TX_VERSION, b[0])
	require.Equal(t, byte(1), b[1])
	require.Equal(t, byte(0xaa), b[2])
	require.Equal(t, CALL_SUBMIT_SOLUTION, b[42])

	_, err = MarshalTx(nil)
	require.Error(t, err)
	_, err = MarshalTx(&Tx{})
	require.Error(t, err)
}

func TestParseTxRejectsMalformed(t *testing.T) {
	good, err := MarshalTx(SignedTx(AccountID{1}, 1, EnterLottery{}))
	require.NoError(t, err)

	_, err = ParseTx(good[:len(good)-1])
	require.ErrorIs(t, err, &TxError{Code: TX_ERR_PARSE})

	_, err = ParseTx(append(append([]byte(nil), good...), 0))
	require.ErrorIs(t, err, &TxError{Code: TX_ERR_PARSE})

	bad := append([]byte(nil), good...)
	bad[0] = 9
	_, err = ParseTx(bad)
	require.ErrorIs(t, err, &TxError{Code: TX_ERR_PARSE})

	bad = append([]byte(nil), good...)
	bad[42] = 0x7f
	_, err = ParseTx(bad)
	require.ErrorIs(t, err, &TxError{Code: TX_ERR_PARSE})
}

func TestTxIDChangesWithNonce(t *testing.T) {
	h := crypto.Blake2b256{}
	a, err := TxID(h, SignedTx(AccountID{1}, 1, Withdraw{}))
	require.NoError(t, err)
	b, err := TxID(h, SignedTx(AccountID{1}, 2, Withdraw{}))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
