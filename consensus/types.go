package consensus

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AccountID identifies a participant. Its canonical encoding is the raw 32 bytes.
type AccountID [ACCOUNT_ID_BYTES]byte

// Work is the caller-supplied proof value hashed into the PoW challenge.
type Work [WORK_BYTES]byte

func (a AccountID) String() string {
	return base58.Encode(a[:])
}

func (a AccountID) Bytes() []byte {
	out := make([]byte, ACCOUNT_ID_BYTES)
	copy(out, a[:])
	return out
}

// Less orders account ids by their raw bytes.
func (a AccountID) Less(b AccountID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ParseAccountID accepts either 64 hex characters or a base58 string decoding to 32 bytes.
func ParseAccountID(s string) (AccountID, error) {
	var out AccountID
	s = strings.TrimSpace(s)
	if s == "" {
		return out, fmt.Errorf("account id: empty")
	}
	if len(s) == 2*ACCOUNT_ID_BYTES {
		if raw, err := hex.DecodeString(s); err == nil {
			copy(out[:], raw)
			return out, nil
		}
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("account id: %w", err)
	}
	if len(raw) != ACCOUNT_ID_BYTES {
		return out, fmt.Errorf("account id: expected %d bytes, got %d", ACCOUNT_ID_BYTES, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func (w Work) String() string {
	return hex.EncodeToString(w[:])
}

func ParseWork(s string) (Work, error) {
	var out Work
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return out, fmt.Errorf("work: %w", err)
	}
	if len(raw) != WORK_BYTES {
		return out, fmt.Errorf("work: expected %d bytes, got %d", WORK_BYTES, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ScoreState is either Enabled(points) or Disabled. Disabled is terminal.
// The zero value is Enabled(0).
type ScoreState struct {
	disabled bool
	points   uint64
}

func Enabled(points uint64) ScoreState { return ScoreState{points: points} }

func Disabled() ScoreState { return ScoreState{disabled: true} }

func (s ScoreState) IsDisabled() bool { return s.disabled }

// Points returns the enabled point total; a disabled state reports 0.
func (s ScoreState) Points() uint64 {
	if s.disabled {
		return 0
	}
	return s.points
}

func (s ScoreState) String() string {
	if s.disabled {
		return "Disabled"
	}
	return fmt.Sprintf("Enabled(%d)", s.points)
}

const (
	scoreTagEnabled  byte = 0
	scoreTagDisabled byte = 1
)

// ScoreStateBytes encodes s as tag u8 followed by points u64le for Enabled.
func ScoreStateBytes(s ScoreState) []byte {
	if s.disabled {
		return []byte{scoreTagDisabled}
	}
	out := make([]byte, 0, 9)
	out = append(out, scoreTagEnabled)
	return AppendU64le(out, s.points)
}

func ParseScoreState(b []byte) (ScoreState, error) {
	c := newCursor(b)
	tag, err := c.readU8()
	if err != nil {
		return ScoreState{}, err
	}
	switch tag {
	case scoreTagDisabled:
		if c.remaining() != 0 {
			return ScoreState{}, fmt.Errorf("parse: score state trailing bytes")
		}
		return Disabled(), nil
	case scoreTagEnabled:
		points, err := c.readU64LE()
		if err != nil {
			return ScoreState{}, err
		}
		if c.remaining() != 0 {
			return ScoreState{}, fmt.Errorf("parse: score state trailing bytes")
		}
		return Enabled(points), nil
	default:
		return ScoreState{}, fmt.Errorf("parse: unknown score state tag %d", tag)
	}
}
