package crypto

// Hasher is the narrow hashing interface used by consensus code.
// Implementations must be deterministic and preimage resistant with a 256-bit output.
type Hasher interface {
	Sum256(input []byte) [32]byte
}

// Default returns the hasher used when none is configured.
func Default() Hasher {
	return Blake2b256{}
}

// ByName resolves a configured hasher name ("blake2b-256" or "sha3-256").
func ByName(name string) (Hasher, bool) {
	switch name {
	case "", Blake2b256Name:
		return Blake2b256{}, true
	case SHA3_256Name:
		return SHA3_256{}, true
	default:
		return nil, false
	}
}
