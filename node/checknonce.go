package node

import (
	"fmt"
	"math"

	"github.com/xlc/dotpal-ctf/consensus"
)

// AccountReader is the read side of the account store.
type AccountReader interface {
	AccountNonce(who consensus.AccountID) (uint64, error)
}

// AccountStore adds the nonce write used by Prepare.
type AccountStore interface {
	AccountReader
	SetAccountNonce(who consensus.AccountID, nonce uint64) error
}

// ValidTransaction is the pool-facing validity record of a transaction.
type ValidTransaction struct {
	Priority  uint64
	Requires  [][]byte
	Provides  [][]byte
	Longevity uint64
	Propagate bool
}

// Val is carried from Validate to Prepare.
type Val struct {
	Refund bool
	Who    consensus.AccountID
	Stored uint64
}

// Pre is carried from Prepare to PostDispatch.
type Pre struct {
	NonceChecked bool
	Refund       bool
	Who          consensus.AccountID
}

// CheckNonce guards a transaction with the signer's account nonce.
type CheckNonce struct {
	Nonce uint64
}

// Validate never mutates. A nonce ahead of the stored one is valid but requires its predecessor.
func (c CheckNonce) Validate(accounts AccountReader, signer *consensus.AccountID) (ValidTransaction, Val, error) {
	if signer == nil {
		return ValidTransaction{}, Val{Refund: true}, nil
	}
	who := *signer
	stored, err := accounts.AccountNonce(who)
	if err != nil {
		return ValidTransaction{}, Val{}, fmt.Errorf("read nonce: %w", err)
	}
	if c.Nonce < stored {
		return ValidTransaction{}, Val{}, consensus.NewTxError(consensus.TX_ERR_STALE,
			fmt.Sprintf("nonce %d < account nonce %d", c.Nonce, stored))
	}

	vt := ValidTransaction{
		Priority:  0,
		Provides:  [][]byte{consensus.NonceTag(who, c.Nonce)},
		Longevity: math.MaxUint64,
		Propagate: true,
	}
	if c.Nonce > stored {
		vt.Requires = [][]byte{consensus.NonceTag(who, c.Nonce-1)}
	}
	return vt, Val{Who: who, Stored: stored}, nil
}

// Prepare increments the account nonce. It must run in commit order right before dispatch.
func (c CheckNonce) Prepare(accounts AccountStore, val Val) (Pre, error) {
	if val.Refund {
		return Pre{Refund: true}, nil
	}
	if c.Nonce < val.Stored {
		return Pre{}, consensus.NewTxError(consensus.TX_ERR_STALE,
			fmt.Sprintf("nonce %d < account nonce %d", c.Nonce, val.Stored))
	}
	if c.Nonce > val.Stored {
		return Pre{}, consensus.NewTxError(consensus.TX_ERR_FUTURE,
			fmt.Sprintf("nonce %d > account nonce %d", c.Nonce, val.Stored))
	}
	if err := accounts.SetAccountNonce(val.Who, val.Stored+1); err != nil {
		return Pre{}, fmt.Errorf("write nonce: %w", err)
	}
	return Pre{NonceChecked: true, Who: val.Who}, nil
}

// PostDispatch returns the weight refunded to the caller. The guard itself carries no weight.
func (c CheckNonce) PostDispatch(pre Pre) uint64 {
	_ = pre
	return 0
}
