package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xlc/dotpal-ctf/consensus"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketAccounts = []byte("accounts_by_id")
	bucketScores   = []byte("scores_by_id")
	bucketEntries  = []byte("lottery_entries_by_id")
	bucketMeta     = []byte("meta")

	keyEntryCount = []byte("lottery_entry_count")
	keyRandomness = []byte("lottery_randomness")
	keyHeight     = []byte("height")
)

var _ Backend = (*DB)(nil)

type DB struct {
	chainID  string
	chainDir string
	db       *bolt.DB
	manifest *Manifest
}

func Open(datadir string, chainID string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if chainID == "" {
		return nil, fmt.Errorf("chain_id required")
	}

	chainDir := ChainDir(datadir, chainID)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "kv.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	d := &DB{chainID: chainID, chainDir: chainDir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAccounts, bucketScores, bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(chainDir)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil // uninitialized chain; caller must InitGenesis.
		}
		_ = bdb.Close()
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	if m.ChainID != chainID {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest chain_id %q != %q", m.ChainID, chainID)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ChainDir() string { return d.chainDir }

func (d *DB) ChainID() string { return d.chainID }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

func (d *DB) SetManifest(m *Manifest) error {
	if d == nil {
		return fmt.Errorf("db: nil")
	}
	if err := writeManifestAtomic(d.chainDir, m); err != nil {
		return err
	}
	d.manifest = m
	return nil
}

func (d *DB) Update(fn func(State) error) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltState{tx: tx})
	})
}

func (d *DB) View(fn func(State) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		return fn(&boltState{tx: tx})
	})
}

type boltState struct {
	tx *bolt.Tx
}

func (s *boltState) put(bucket, key, val []byte) error {
	if !s.tx.Writable() {
		return ErrReadOnly
	}
	return s.tx.Bucket(bucket).Put(key, val)
}

func (s *boltState) AccountNonce(who consensus.AccountID) (uint64, error) {
	v := s.tx.Bucket(bucketAccounts).Get(who[:])
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("account %s: bad nonce len %d", who, len(v))
	}
	return binary.LittleEndian.Uint64(v), nil
}

func (s *boltState) SetAccountNonce(who consensus.AccountID, nonce uint64) error {
	return s.put(bucketAccounts, who[:], consensus.AppendU64le(nil, nonce))
}

func (s *boltState) Score(who consensus.AccountID) (consensus.ScoreState, error) {
	v := s.tx.Bucket(bucketScores).Get(who[:])
	if v == nil {
		return consensus.Enabled(0), nil
	}
	st, err := consensus.ParseScoreState(v)
	if err != nil {
		return consensus.ScoreState{}, fmt.Errorf("score %s: %w", who, err)
	}
	return st, nil
}

func (s *boltState) PutScore(who consensus.AccountID, st consensus.ScoreState) error {
	return s.put(bucketScores, who[:], consensus.ScoreStateBytes(st))
}

func (s *boltState) HasLotteryEntry(who consensus.AccountID) (bool, error) {
	return s.tx.Bucket(bucketEntries).Get(who[:]) != nil, nil
}

func (s *boltState) PutLotteryEntry(who consensus.AccountID, entryNumber uint32) error {
	return s.put(bucketEntries, who[:], consensus.AppendU32le(nil, entryNumber))
}

func (s *boltState) DeleteLotteryEntry(who consensus.AccountID) error {
	if !s.tx.Writable() {
		return ErrReadOnly
	}
	return s.tx.Bucket(bucketEntries).Delete(who[:])
}

func (s *boltState) LotteryEntries() ([]consensus.AccountID, error) {
	var out []consensus.AccountID
	err := s.tx.Bucket(bucketEntries).ForEach(func(k, _ []byte) error {
		if len(k) != consensus.ACCOUNT_ID_BYTES {
			return fmt.Errorf("lottery entry: bad key len %d", len(k))
		}
		var who consensus.AccountID
		copy(who[:], k)
		out = append(out, who)
		return nil
	})
	return out, err
}

func (s *boltState) LotteryEntryCount() (uint32, error) {
	v := s.tx.Bucket(bucketMeta).Get(keyEntryCount)
	if v == nil {
		return 0, nil
	}
	if len(v) != 4 {
		return 0, fmt.Errorf("meta: bad entry count len %d", len(v))
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (s *boltState) SetLotteryEntryCount(n uint32) error {
	return s.put(bucketMeta, keyEntryCount, consensus.AppendU32le(nil, n))
}

func (s *boltState) LotteryRandomness() ([32]byte, bool, error) {
	var out [32]byte
	v := s.tx.Bucket(bucketMeta).Get(keyRandomness)
	if v == nil {
		return out, false, nil
	}
	if len(v) != 32 {
		return out, false, fmt.Errorf("meta: bad randomness len %d", len(v))
	}
	copy(out[:], v)
	return out, true, nil
}

func (s *boltState) SetLotteryRandomness(r [32]byte) error {
	return s.put(bucketMeta, keyRandomness, append([]byte(nil), r[:]...))
}

func (s *boltState) Height() (uint64, bool, error) {
	v := s.tx.Bucket(bucketMeta).Get(keyHeight)
	if v == nil {
		return 0, false, nil
	}
	if len(v) != 8 {
		return 0, false, fmt.Errorf("meta: bad height len %d", len(v))
	}
	return binary.LittleEndian.Uint64(v), true, nil
}

func (s *boltState) SetHeight(h uint64) error {
	return s.put(bucketMeta, keyHeight, consensus.AppendU64le(nil, h))
}
