package crypto

import "golang.org/x/crypto/blake2b"

const Blake2b256Name = "blake2b-256"

// Blake2b256 is the canonical challenge hasher (BLAKE2b with a 32-byte digest, no key).
type Blake2b256 struct{}

func (Blake2b256) Sum256(input []byte) [32]byte {
	return blake2b.Sum256(input)
}
