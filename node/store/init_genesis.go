package store

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/xlc/dotpal-ctf/crypto"
)

type Genesis struct {
	Hasher string
	// RandomnessSeed, when set, initializes the lottery accumulator so that
	// winner selection is not pinned to index 0.
	RandomnessSeed *[32]byte
}

// InitGenesis writes the genesis state into an empty chain DB and commits the manifest.
func (d *DB) InitGenesis(g Genesis) error {
	if d == nil {
		return fmt.Errorf("db: nil")
	}
	if d.manifest != nil {
		return fmt.Errorf("chain already initialized (manifest exists)")
	}
	if g.Hasher == "" {
		g.Hasher = crypto.Blake2b256Name
	}
	if _, ok := crypto.ByName(g.Hasher); !ok {
		return fmt.Errorf("unknown hasher %q", g.Hasher)
	}

	if err := d.Update(func(st State) error {
		if _, ok, err := st.Height(); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("chain already initialized (height exists)")
		}
		if g.RandomnessSeed != nil {
			return st.SetLotteryRandomness(*g.RandomnessSeed)
		}
		return nil
	}); err != nil {
		return err
	}

	m := &Manifest{
		SchemaVersion: SchemaVersionV1,
		ChainID:       d.chainID,
		Hasher:        g.Hasher,
		CreatedUnix:   uint64(time.Now().Unix()), // #nosec G115 -- wall clock is after 1970.
	}
	if g.RandomnessSeed != nil {
		m.RandomnessSeedHex = hex.EncodeToString(g.RandomnessSeed[:])
	}
	return d.SetManifest(m)
}
