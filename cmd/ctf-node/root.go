package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xlc/dotpal-ctf/consensus"
	"github.com/xlc/dotpal-ctf/crypto"
	"github.com/xlc/dotpal-ctf/node"
	"github.com/xlc/dotpal-ctf/node/store"
)

func newRootCmd() *cobra.Command {
	defaults := node.DefaultConfig()
	root := &cobra.Command{
		Use:           "ctf-node",
		Short:         "PoW scoring chain with a lottery, over a local datadir",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root.PersistentFlags(), defaults)
	root.AddCommand(
		newInitCmd(),
		newConfigCmd(),
		newSubmitCmd(),
		newWithdrawCmd(),
		newEnterCmd(),
		newTickCmd(),
		newRunCmd(defaults),
		newScoreCmd(),
		newLotteryCmd(),
		newSolveCmd(),
	)
	return root
}

// env is an opened datadir with a runtime over it.
type env struct {
	cfg    node.Config
	log    *zap.Logger
	db     *store.DB
	hasher crypto.Hasher
	rt     *node.Runtime
}

func (e *env) Close() {
	_ = e.log.Sync()
	if err := e.db.Close(); err != nil {
		e.log.Warn("close db", zap.Error(err))
	}
}

func openEnv(cmd *cobra.Command, opts ...node.Option) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := node.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.DataDir, cfg.ChainID)
	if err != nil {
		return nil, err
	}
	m := db.Manifest()
	if m == nil {
		_ = db.Close()
		return nil, errors.New("chain not initialized (run `ctf-node init`)")
	}
	h, ok := crypto.ByName(m.Hasher)
	if !ok {
		_ = db.Close()
		return nil, fmt.Errorf("manifest hasher %q unknown", m.Hasher)
	}
	opts = append([]node.Option{
		node.WithHasher(h),
		node.WithLogger(log),
		node.WithEventSink(node.NewLogSink(log)),
	}, opts...)
	rt, err := node.New(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db, hasher: h, rt: rt}, nil
}

func newInitCmd() *cobra.Command {
	var seedHex string
	c := &cobra.Command{
		Use:   "init",
		Short: "Initialize the chain datadir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g := store.Genesis{Hasher: cfg.Hasher}
			if seedHex != "" {
				seed, err := consensus.ParseWork(seedHex)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				s := [32]byte(seed)
				g.RandomnessSeed = &s
			}
			db, err := store.Open(cfg.DataDir, cfg.ChainID)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			if err := db.InitGenesis(g); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "initialized chain %s at %s (hasher=%s seeded=%v)\n",
				cfg.ChainID, db.ChainDir(), g.Hasher, g.RandomnessSeed != nil)
			return nil
		},
	}
	c.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed for the lottery randomness accumulator")
	return c
}

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
	addRunFlags(c.Flags(), node.DefaultConfig())
	return c
}

type txFlags struct {
	account string
	nonce   int64
	solve   bool
}

func (f *txFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.account, "account", "", "signer account id (base58 or 64-char hex)")
	c.Flags().Int64Var(&f.nonce, "nonce", -1, "transaction nonce (default: current account nonce)")
	_ = c.MarkFlagRequired("account")
}

// resolve returns the signer, the tx nonce and the challenge nonce the call
// will be verified against.
func (f *txFlags) resolve(e *env) (consensus.AccountID, uint64, uint32, error) {
	who, err := consensus.ParseAccountID(f.account)
	if err != nil {
		return consensus.AccountID{}, 0, 0, fmt.Errorf("account: %w", err)
	}
	nonce := uint64(f.nonce) // #nosec G115 -- checked non-negative below.
	if f.nonce < 0 {
		if nonce, err = e.rt.Nonce(who); err != nil {
			return consensus.AccountID{}, 0, 0, err
		}
	}
	challenge, err := consensus.ChallengeNonce(nonce + 1)
	if err != nil {
		return consensus.AccountID{}, 0, 0, err
	}
	return who, nonce, challenge, nil
}

func solveWork(cmd *cobra.Command, e *env, who consensus.AccountID, challenge uint32, difficulty uint32) (consensus.Work, error) {
	w, attempts, err := node.NewSolver(e.hasher, nil).Solve(cmd.Context(), who, challenge, difficulty, consensus.Work{})
	if err != nil {
		return consensus.Work{}, err
	}
	e.log.Info("solved", zap.Uint32("difficulty", difficulty), zap.Uint64("attempts", attempts), zap.Stringer("work", w))
	return w, nil
}

func applyAndPrint(cmd *cobra.Command, e *env, tx *consensus.Tx) error {
	rcpt, err := e.rt.ApplyTx(tx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	result := "ok"
	if rcpt.Err != nil {
		result = rcpt.Err.Error()
	}
	_, _ = fmt.Fprintf(out, "tx: id=%x call=%s nonce=%d result=%s\n", rcpt.TxID, rcpt.Call, rcpt.Nonce, result)
	for _, ev := range rcpt.Events {
		_, _ = fmt.Fprintf(out, "event: %s %+v\n", ev.EventName(), ev)
	}
	return rcpt.Err
}

func newSubmitCmd() *cobra.Command {
	var (
		f          txFlags
		difficulty uint32
		workHex    string
	)
	c := &cobra.Command{
		Use:   "submit",
		Short: "Submit a PoW solution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			who, nonce, challenge, err := f.resolve(e)
			if err != nil {
				return err
			}
			var work consensus.Work
			if f.solve {
				work, err = solveWork(cmd, e, who, challenge, difficulty)
			} else {
				work, err = consensus.ParseWork(workHex)
			}
			if err != nil {
				return err
			}
			return applyAndPrint(cmd, e, consensus.SignedTx(who, nonce, consensus.SubmitSolution{Difficulty: difficulty, Work: work}))
		},
	}
	f.register(c)
	c.Flags().BoolVar(&f.solve, "solve", false, "search for work locally instead of --work")
	c.Flags().Uint32Var(&difficulty, "difficulty", 0, "solution difficulty in [1,256]")
	c.Flags().StringVar(&workHex, "work", "", "32-byte work value (hex)")
	_ = c.MarkFlagRequired("difficulty")
	c.MarkFlagsOneRequired("work", "solve")
	c.MarkFlagsMutuallyExclusive("work", "solve")
	return c
}

func newWithdrawCmd() *cobra.Command {
	var f txFlags
	c := &cobra.Command{
		Use:   "withdraw",
		Short: "Freeze the account score permanently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			who, nonce, _, err := f.resolve(e)
			if err != nil {
				return err
			}
			return applyAndPrint(cmd, e, consensus.SignedTx(who, nonce, consensus.Withdraw{}))
		},
	}
	f.register(c)
	return c
}

func newEnterCmd() *cobra.Command {
	var (
		f       txFlags
		workHex string
	)
	c := &cobra.Command{
		Use:   "enter",
		Short: "Enter the current lottery round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			who, nonce, challenge, err := f.resolve(e)
			if err != nil {
				return err
			}
			var work consensus.Work
			if f.solve {
				work, err = solveWork(cmd, e, who, challenge, consensus.LOTTERY_DIFFICULTY)
			} else {
				work, err = consensus.ParseWork(workHex)
			}
			if err != nil {
				return err
			}
			return applyAndPrint(cmd, e, consensus.SignedTx(who, nonce, consensus.EnterLottery{Work: work}))
		},
	}
	f.register(c)
	c.Flags().BoolVar(&f.solve, "solve", false, "search for work locally instead of --work")
	c.Flags().StringVar(&workHex, "work", "", "32-byte work value (hex)")
	c.MarkFlagsOneRequired("work", "solve")
	c.MarkFlagsMutuallyExclusive("work", "solve")
	return c
}

func newTickCmd() *cobra.Command {
	var n int
	c := &cobra.Command{
		Use:   "tick",
		Short: "Produce empty blocks, running the per-tick hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			pool, err := node.NewTxPool(e.rt, node.TxPoolConfig{MaxSize: e.cfg.TxPoolSize})
			if err != nil {
				return err
			}
			p, err := node.NewProducer(e.rt, pool, node.ProducerConfig{MaxTxPerBlock: e.cfg.MaxTxPerBlock})
			if err != nil {
				return err
			}
			blocks, err := p.ProduceN(cmd.Context(), n)
			if err != nil {
				return err
			}
			for _, b := range blocks {
				printBlock(cmd, b)
			}
			return nil
		},
	}
	c.Flags().IntVarP(&n, "blocks", "n", 1, "number of blocks")
	return c
}

func printBlock(cmd *cobra.Command, b node.ProducedBlock) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "block: height=%d applied=%d failed=%d dropped=%d\n", b.Height, b.Applied, b.Failed, b.Dropped)
	if d := b.Draw; d != nil {
		winner := "none"
		if d.Winner != nil {
			winner = d.Winner.String()
		}
		_, _ = fmt.Fprintf(out, "lottery: index=%d entrants=%d winner=%s paid=%v\n", d.Index, d.Entrants, winner, d.Paid)
	}
}

func newScoreCmd() *cobra.Command {
	var account string
	c := &cobra.Command{
		Use:   "score",
		Short: "Show score and nonce of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			who, err := consensus.ParseAccountID(account)
			if err != nil {
				return fmt.Errorf("account: %w", err)
			}
			s, err := e.rt.Score(who)
			if err != nil {
				return err
			}
			n, err := e.rt.Nonce(who)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account: %s score=%s nonce=%d\n", who, s, n)
			return nil
		},
	}
	c.Flags().StringVar(&account, "account", "", "account id (base58 or 64-char hex)")
	_ = c.MarkFlagRequired("account")
	return c
}

func newLotteryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lottery",
		Short: "Show the current lottery round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			count, err := e.rt.LotteryEntryCount()
			if err != nil {
				return err
			}
			entries, err := e.rt.LotteryEntries()
			if err != nil {
				return err
			}
			r, ok, err := e.rt.LotteryRandomness()
			if err != nil {
				return err
			}
			randomness := "unset"
			if ok {
				randomness = fmt.Sprintf("%x", r)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "lottery: count=%d threshold=%d randomness=%s\n", count, consensus.LOTTERY_THRESHOLD, randomness)
			names := make([]string, 0, len(entries))
			for _, who := range entries {
				names = append(names, who.String())
			}
			_, _ = fmt.Fprintf(out, "entries: [%s]\n", strings.Join(names, " "))
			return nil
		},
	}
}

func newSolveCmd() *cobra.Command {
	var (
		account     string
		nonce       uint32
		difficulty  uint32
		maxAttempts uint64
	)
	c := &cobra.Command{
		Use:   "solve",
		Short: "Search for a work value offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			h, _ := crypto.ByName(cfg.Hasher)
			who, err := consensus.ParseAccountID(account)
			if err != nil {
				return fmt.Errorf("account: %w", err)
			}
			s := node.NewSolver(h, nil)
			s.MaxAttempts = maxAttempts
			w, attempts, err := s.Solve(cmd.Context(), who, nonce, difficulty, consensus.Work{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "work: %s attempts=%d\n", w, attempts)
			return nil
		},
	}
	c.Flags().StringVar(&account, "account", "", "account id (base58 or 64-char hex)")
	c.Flags().Uint32Var(&nonce, "challenge-nonce", 0, "challenge nonce (account nonce after the tx is prepared)")
	c.Flags().Uint32Var(&difficulty, "difficulty", 0, "difficulty in [1,256]")
	c.Flags().Uint64Var(&maxAttempts, "max-attempts", 0, "give up after N candidates (0 = unbounded)")
	_ = c.MarkFlagRequired("account")
	_ = c.MarkFlagRequired("difficulty")
	return c
}
