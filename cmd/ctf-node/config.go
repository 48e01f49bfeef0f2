package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xlc/dotpal-ctf/node"
)

const envPrefix = "CTF"

const (
	flagConfig        = "config"
	flagDataDir       = "datadir"
	flagChainID       = "chain-id"
	flagHasher        = "hasher"
	flagLogLevel      = "log-level"
	flagBlockInterval = "block-interval"
	flagMaxTxPerBlock = "max-tx-per-block"
	flagTxPoolSize    = "txpool-size"
	flagMetricsAddr   = "metrics-addr"
)

func addGlobalFlags(flags *pflag.FlagSet, defaults node.Config) {
	flags.String(flagConfig, "", "config file (yaml, toml or json)")
	flags.String(flagDataDir, defaults.DataDir, "node data directory")
	flags.String(flagChainID, defaults.ChainID, "chain identifier (subdirectory under datadir/chains)")
	flags.String(flagHasher, defaults.Hasher, "hash function used at init: blake2b-256|sha3-256")
	flags.String(flagLogLevel, defaults.LogLevel, "log level: debug|info|warn|error")
}

func addRunFlags(flags *pflag.FlagSet, defaults node.Config) {
	flags.Duration(flagBlockInterval, defaults.BlockInterval, "time between produced blocks")
	flags.Int(flagMaxTxPerBlock, defaults.MaxTxPerBlock, "max transactions applied per block")
	flags.Int(flagTxPoolSize, defaults.TxPoolSize, "max pending transactions")
	flags.String(flagMetricsAddr, defaults.MetricsAddr, "prometheus listen address host:port (empty disables)")
}

// loadConfig layers defaults, the optional config file, CTF_* environment
// variables and explicitly set flags, in increasing priority.
func loadConfig(cmd *cobra.Command) (node.Config, error) {
	defaults := node.DefaultConfig()
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(flagDataDir, defaults.DataDir)
	v.SetDefault(flagChainID, defaults.ChainID)
	v.SetDefault(flagHasher, defaults.Hasher)
	v.SetDefault(flagLogLevel, defaults.LogLevel)
	v.SetDefault(flagBlockInterval, defaults.BlockInterval)
	v.SetDefault(flagMaxTxPerBlock, defaults.MaxTxPerBlock)
	v.SetDefault(flagTxPoolSize, defaults.TxPoolSize)
	v.SetDefault(flagMetricsAddr, defaults.MetricsAddr)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return node.Config{}, fmt.Errorf("bind flags: %w", err)
	}
	if path := v.GetString(flagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return node.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := node.Config{
		ChainID:       v.GetString(flagChainID),
		DataDir:       v.GetString(flagDataDir),
		Hasher:        v.GetString(flagHasher),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString(flagLogLevel))),
		BlockInterval: v.GetDuration(flagBlockInterval),
		MaxTxPerBlock: v.GetInt(flagMaxTxPerBlock),
		TxPoolSize:    v.GetInt(flagTxPoolSize),
		MetricsAddr:   v.GetString(flagMetricsAddr),
	}
	if err := node.ValidateConfig(cfg); err != nil {
		return node.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func printConfig(w io.Writer, cfg node.Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
