package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xlc/dotpal-ctf/node"
)

const metricsNamespace = "ctf"

func newRunCmd(defaults node.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Produce blocks on a timer and serve metrics",
		Args:  cobra.NoArgs,
		RunE:  runFunc,
	}
	addRunFlags(c.Flags(), defaults)
	return c
}

func runFunc(cmd *cobra.Command, _ []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := node.NewMetrics(metricsNamespace, reg)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd, node.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer e.Close()

	pool, err := node.NewTxPool(e.rt, node.TxPoolConfig{MaxSize: e.cfg.TxPoolSize})
	if err != nil {
		return err
	}
	producer, err := node.NewProducer(e.rt, pool, node.ProducerConfig{MaxTxPerBlock: e.cfg.MaxTxPerBlock})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		e.log.Info("producer started", zap.Duration("interval", e.cfg.BlockInterval))
		return producer.Run(ctx, e.cfg.BlockInterval)
	})
	if e.cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              e.cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			e.log.Info("metrics listening", zap.String("addr", e.cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	err = g.Wait()
	e.log.Info("stopped", zap.Error(err))
	return err
}
