package consensus

import "fmt"

// MarshalTx serialises a Tx into its canonical wire-format bytes.
// The output is the exact inverse of ParseTx.
//
// Layout: version u8 | signed u8 | [signer 32] | nonce u64le | call u8 | call fields
func MarshalTx(tx *Tx) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil tx")
	}
	if tx.Call == nil {
		return nil, fmt.Errorf("nil call")
	}

	b := make([]byte, 0, 2+ACCOUNT_ID_BYTES+8+1+4+WORK_BYTES)
	b = append(b, TX_VERSION)
	if tx.Signer != nil {
		b = append(b, 1)
		b = append(b, tx.Signer[:]...)
	} else {
		b = append(b, 0)
	}
	b = AppendU64le(b, tx.Nonce)
	b = append(b, tx.Call.CallIndex())

	switch c := tx.Call.(type) {
	case SubmitSolution:
		b = AppendU32le(b, c.Difficulty)
		b = append(b, c.Work[:]...)
	case *SubmitSolution:
		b = AppendU32le(b, c.Difficulty)
		b = append(b, c.Work[:]...)
	case Withdraw, *Withdraw:
	case EnterLottery:
		b = append(b, c.Work[:]...)
	case *EnterLottery:
		b = append(b, c.Work[:]...)
	default:
		return nil, fmt.Errorf("unknown call %T", tx.Call)
	}
	return b, nil
}
