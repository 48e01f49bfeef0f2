package consensus

import (
	"encoding/binary"

	"github.com/xlc/dotpal-ctf/crypto"
)

// EvolveRandomness returns H(prev || tick u64le).
func EvolveRandomness(p crypto.Hasher, prev [32]byte, tick uint64) [32]byte {
	buf := make([]byte, 0, 40)
	buf = append(buf, prev[:]...)
	buf = AppendU64le(buf, tick)
	return p.Sum256(buf)
}

// WinnerIndex maps the accumulator onto [0, count): the low 32 bits of r read as a big-endian
// 256-bit number, modulo count. A nil accumulator or empty round selects index 0.
func WinnerIndex(r *[32]byte, count uint32) uint32 {
	if r == nil || count == 0 {
		return 0
	}
	return binary.BigEndian.Uint32(r[28:32]) % count
}
