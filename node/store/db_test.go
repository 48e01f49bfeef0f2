package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlc/dotpal-ctf/consensus"
)

const testChainID = "ctf-test"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), testChainID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"bolt":   openTestDB(t),
		"memory": NewMemDB(),
	}
}

func TestBackend_Defaults(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			who := consensus.AccountID{7}
			require.NoError(t, b.View(func(st State) error {
				n, err := st.AccountNonce(who)
				require.NoError(t, err)
				require.Zero(t, n)

				s, err := st.Score(who)
				require.NoError(t, err)
				require.Equal(t, consensus.Enabled(0), s)

				has, err := st.HasLotteryEntry(who)
				require.NoError(t, err)
				require.False(t, has)

				c, err := st.LotteryEntryCount()
				require.NoError(t, err)
				require.Zero(t, c)

				_, ok, err := st.LotteryRandomness()
				require.NoError(t, err)
				require.False(t, ok)

				_, ok, err = st.Height()
				require.NoError(t, err)
				require.False(t, ok)
				return nil
			}))
		})
	}
}

func TestBackend_RoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := consensus.AccountID{1}
			r := [32]byte{0xaa, 0xbb}
			require.NoError(t, b.Update(func(st State) error {
				require.NoError(t, st.SetAccountNonce(a, 3))
				require.NoError(t, st.PutScore(a, consensus.Enabled(640)))
				require.NoError(t, st.PutLotteryEntry(a, 0))
				require.NoError(t, st.SetLotteryEntryCount(1))
				require.NoError(t, st.SetLotteryRandomness(r))
				return st.SetHeight(9)
			}))
			require.NoError(t, b.View(func(st State) error {
				n, _ := st.AccountNonce(a)
				require.Equal(t, uint64(3), n)
				s, _ := st.Score(a)
				require.Equal(t, uint64(640), s.Points())
				has, _ := st.HasLotteryEntry(a)
				require.True(t, has)
				c, _ := st.LotteryEntryCount()
				require.Equal(t, uint32(1), c)
				got, ok, _ := st.LotteryRandomness()
				require.True(t, ok)
				require.Equal(t, r, got)
				h, ok, _ := st.Height()
				require.True(t, ok)
				require.Equal(t, uint64(9), h)
				return nil
			}))

			require.NoError(t, b.Update(func(st State) error {
				require.NoError(t, st.PutScore(a, consensus.Disabled()))
				return st.DeleteLotteryEntry(a)
			}))
			require.NoError(t, b.View(func(st State) error {
				s, _ := st.Score(a)
				require.True(t, s.IsDisabled())
				has, _ := st.HasLotteryEntry(a)
				require.False(t, has)
				return nil
			}))
		})
	}
}

func TestBackend_UpdateRollsBackOnError(t *testing.T) {
	boom := errors.New("boom")
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := consensus.AccountID{2}
			err := b.Update(func(st State) error {
				require.NoError(t, st.SetAccountNonce(a, 5))
				require.NoError(t, st.PutLotteryEntry(a, 0))
				return boom
			})
			require.ErrorIs(t, err, boom)
			require.NoError(t, b.View(func(st State) error {
				n, _ := st.AccountNonce(a)
				require.Zero(t, n)
				has, _ := st.HasLotteryEntry(a)
				require.False(t, has)
				return nil
			}))
		})
	}
}

func TestBackend_EntriesAscending(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ids := []consensus.AccountID{{0x30}, {0x01, 0xff}, {0x20}, {0x01, 0x02}}
			require.NoError(t, b.Update(func(st State) error {
				for i, id := range ids {
					require.NoError(t, st.PutLotteryEntry(id, uint32(i)))
				}
				return nil
			}))
			require.NoError(t, b.View(func(st State) error {
				got, err := st.LotteryEntries()
				require.NoError(t, err)
				require.Equal(t, []consensus.AccountID{{0x01, 0x02}, {0x01, 0xff}, {0x20}, {0x30}}, got)
				return nil
			}))
		})
	}
}

func TestBackend_ViewIsReadOnly(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := b.View(func(st State) error {
				return st.SetAccountNonce(consensus.AccountID{1}, 1)
			})
			require.ErrorIs(t, err, ErrReadOnly)
		})
	}
}

func TestDB_InitGenesisAndReopen(t *testing.T) {
	datadir := t.TempDir()
	db, err := Open(datadir, testChainID)
	require.NoError(t, err)
	require.Nil(t, db.Manifest())

	seed := [32]byte{1, 2, 3}
	require.NoError(t, db.InitGenesis(Genesis{RandomnessSeed: &seed}))
	require.Error(t, db.InitGenesis(Genesis{}))
	require.NoError(t, db.Close())

	db, err = Open(datadir, testChainID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := db.Manifest()
	require.NotNil(t, m)
	require.Equal(t, SchemaVersionV1, m.SchemaVersion)
	require.Equal(t, testChainID, m.ChainID)
	require.Equal(t, "blake2b-256", m.Hasher)
	require.Equal(t, "0102030000000000000000000000000000000000000000000000000000000000", m.RandomnessSeedHex)

	require.NoError(t, db.View(func(st State) error {
		r, ok, err := st.LotteryRandomness()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, seed, r)
		return nil
	}))
}

func TestDB_InitGenesisRejectsUnknownHasher(t *testing.T) {
	db := openTestDB(t)
	require.Error(t, db.InitGenesis(Genesis{Hasher: "md5"}))
	require.Nil(t, db.Manifest())
}

func TestDB_OpenRequiresArgs(t *testing.T) {
	_, err := Open("", testChainID)
	require.Error(t, err)
	_, err = Open(t.TempDir(), "")
	require.Error(t, err)
}
