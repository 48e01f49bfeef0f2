package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xlc/dotpal-ctf/crypto"
)

type Config struct {
	ChainID       string        `json:"chain_id" mapstructure:"chain_id"`
	DataDir       string        `json:"data_dir" mapstructure:"data_dir"`
	Hasher        string        `json:"hasher" mapstructure:"hasher"`
	LogLevel      string        `json:"log_level" mapstructure:"log_level"`
	BlockInterval time.Duration `json:"block_interval" mapstructure:"block_interval"`
	MaxTxPerBlock int           `json:"max_tx_per_block" mapstructure:"max_tx_per_block"`
	TxPoolSize    int           `json:"txpool_size" mapstructure:"txpool_size"`
	// MetricsAddr is the promhttp listen address; empty disables the endpoint.
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ctf"
	}
	return filepath.Join(home, ".ctf")
}

func DefaultConfig() Config {
	return Config{
		ChainID:       "devnet",
		DataDir:       DefaultDataDir(),
		Hasher:        crypto.Blake2b256Name,
		LogLevel:      "info",
		BlockInterval: 6 * time.Second,
		MaxTxPerBlock: 1024,
		TxPoolSize:    4096,
		MetricsAddr:   "127.0.0.1:9615",
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ChainID) == "" {
		return errors.New("chain_id is required")
	}
	if strings.ContainsAny(cfg.ChainID, `/\`) || cfg.ChainID == "." || cfg.ChainID == ".." {
		return fmt.Errorf("invalid chain_id %q", cfg.ChainID)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if _, ok := crypto.ByName(cfg.Hasher); !ok {
		return fmt.Errorf("unknown hasher %q", cfg.Hasher)
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.BlockInterval <= 0 {
		return errors.New("block_interval must be > 0")
	}
	if cfg.MaxTxPerBlock <= 0 {
		return errors.New("max_tx_per_block must be > 0")
	}
	if cfg.TxPoolSize <= 0 {
		return errors.New("txpool_size must be > 0")
	}
	if cfg.TxPoolSize > 1<<20 {
		return errors.New("txpool_size must be <= 1048576")
	}
	if cfg.MetricsAddr != "" {
		if err := validateAddr(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics_addr: %w", err)
		}
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}
