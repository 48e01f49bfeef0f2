package consensus

import "github.com/xlc/dotpal-ctf/crypto"

const TX_VERSION uint8 = 1

// Call indices on the wire.
const (
	CALL_SUBMIT_SOLUTION uint8 = 0
	CALL_WITHDRAW        uint8 = 1
	CALL_ENTER_LOTTERY   uint8 = 2
)

// Call is one of SubmitSolution, Withdraw or EnterLottery.
type Call interface {
	CallIndex() uint8
	Name() string
}

type SubmitSolution struct {
	Difficulty uint32
	Work       Work
}

func (SubmitSolution) CallIndex() uint8 { return CALL_SUBMIT_SOLUTION }
func (SubmitSolution) Name() string     { return "submit_solution" }

type Withdraw struct{}

func (Withdraw) CallIndex() uint8 { return CALL_WITHDRAW }
func (Withdraw) Name() string     { return "withdraw" }

type EnterLottery struct {
	Work Work
}

func (EnterLottery) CallIndex() uint8 { return CALL_ENTER_LOTTERY }
func (EnterLottery) Name() string     { return "enter_lottery" }

// Tx carries a call, its caller and the replay-protection nonce.
// A nil Signer is an unsigned origin.
type Tx struct {
	Signer *AccountID
	Nonce  uint64
	Call   Call
}

// SignedTx is a convenience constructor for a signed transaction.
func SignedTx(who AccountID, nonce uint64, call Call) *Tx {
	signer := who
	return &Tx{Signer: &signer, Nonce: nonce, Call: call}
}

// TxID is the hash of the canonical transaction bytes.
func TxID(p crypto.Hasher, tx *Tx) ([32]byte, error) {
	b, err := MarshalTx(tx)
	if err != nil {
		return [32]byte{}, err
	}
	return p.Sum256(b), nil
}
