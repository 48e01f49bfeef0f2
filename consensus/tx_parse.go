package consensus

// ParseTx decodes canonical transaction bytes. Trailing bytes are rejected.
func ParseTx(b []byte) (*Tx, error) {
	c := newCursor(b)

	version, err := c.readU8()
	if err != nil {
		return nil, txerr(TX_ERR_PARSE, err.Error())
	}
	if version != TX_VERSION {
		return nil, txerr(TX_ERR_PARSE, "unsupported tx version")
	}

	signed, err := c.readU8()
	if err != nil {
		return nil, txerr(TX_ERR_PARSE, err.Error())
	}
	tx := &Tx{}
	switch signed {
	case 0:
	case 1:
		who, err := c.read32()
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, err.Error())
		}
		signer := AccountID(who)
		tx.Signer = &signer
	default:
		return nil, txerr(TX_ERR_PARSE, "bad signed flag")
	}

	if tx.Nonce, err = c.readU64LE(); err != nil {
		return nil, txerr(TX_ERR_PARSE, err.Error())
	}

	index, err := c.readU8()
	if err != nil {
		return nil, txerr(TX_ERR_PARSE, err.Error())
	}
	switch index {
	case CALL_SUBMIT_SOLUTION:
		difficulty, err := c.readU32LE()
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, err.Error())
		}
		work, err := c.read32()
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, err.Error())
		}
		tx.Call = SubmitSolution{Difficulty: difficulty, Work: work}
	case CALL_WITHDRAW:
		tx.Call = Withdraw{}
	case CALL_ENTER_LOTTERY:
		work, err := c.read32()
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, err.Error())
		}
		tx.Call = EnterLottery{Work: work}
	default:
		return nil, txerr(TX_ERR_PARSE, "unknown call index")
	}

	if c.remaining() != 0 {
		return nil, txerr(TX_ERR_PARSE, "trailing bytes")
	}
	return tx, nil
}
