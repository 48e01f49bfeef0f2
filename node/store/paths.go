package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChainDir returns the on-disk directory for a given chain under datadir:
//
//	datadir/chains/<chain_id>/
func ChainDir(datadir string, chainID string) string {
	return filepath.Join(datadir, "chains", chainID)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
