package consensus

import "encoding/binary"

func AppendU32le(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendU64le(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// NonceTag is the ordering tag (who, nonce) used in provides/requires.
func NonceTag(who AccountID, nonce uint64) []byte {
	out := make([]byte, 0, NONCE_TAG_BYTES)
	out = append(out, who[:]...)
	return AppendU64le(out, nonce)
}
