package consensus

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CTF_ERR_BAD_PROOF            ErrorCode = "CTF_ERR_BAD_PROOF"
	CTF_ERR_INVALID_DIFFICULTY   ErrorCode = "CTF_ERR_INVALID_DIFFICULTY"
	CTF_ERR_ALREADY_WITHDRAWN    ErrorCode = "CTF_ERR_ALREADY_WITHDRAWN"
	CTF_ERR_SCORE_DISABLED       ErrorCode = "CTF_ERR_SCORE_DISABLED"
	CTF_ERR_LOTTERY_ENTRY_FAILED ErrorCode = "CTF_ERR_LOTTERY_ENTRY_FAILED"
	CTF_ERR_BAD_ORIGIN           ErrorCode = "CTF_ERR_BAD_ORIGIN"

	TX_ERR_STALE  ErrorCode = "TX_ERR_STALE"
	TX_ERR_FUTURE ErrorCode = "TX_ERR_FUTURE"
	TX_ERR_PARSE  ErrorCode = "TX_ERR_PARSE"
)

// Sentinels for errors.Is; a *TxError matches any of them with the same Code.
var (
	ErrBadProof           = &TxError{Code: CTF_ERR_BAD_PROOF}
	ErrInvalidDifficulty  = &TxError{Code: CTF_ERR_INVALID_DIFFICULTY}
	ErrAlreadyWithdrawn   = &TxError{Code: CTF_ERR_ALREADY_WITHDRAWN}
	ErrScoreDisabled      = &TxError{Code: CTF_ERR_SCORE_DISABLED}
	ErrLotteryEntryFailed = &TxError{Code: CTF_ERR_LOTTERY_ENTRY_FAILED}
	ErrBadOrigin          = &TxError{Code: CTF_ERR_BAD_ORIGIN}
	ErrStale              = &TxError{Code: TX_ERR_STALE}
	ErrFuture             = &TxError{Code: TX_ERR_FUTURE}
)

type TxError struct {
	Code ErrorCode
	Msg  string
}

func (e *TxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *TxError) Is(target error) bool {
	t, ok := target.(*TxError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func txerr(code ErrorCode, msg string) error {
	return &TxError{Code: code, Msg: msg}
}

// NewTxError builds a *TxError for callers outside this package.
func NewTxError(code ErrorCode, msg string) error {
	return txerr(code, msg)
}

// CodeOf returns the code of the first *TxError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var te *TxError
	if errors.As(err, &te) && te != nil {
		return te.Code, true
	}
	return "", false
}

// IsValidityError reports whether err rejects a transaction before dispatch (Stale or Future).
func IsValidityError(err error) bool {
	return errors.Is(err, ErrStale) || errors.Is(err, ErrFuture)
}
