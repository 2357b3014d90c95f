package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/driver"
	"github.com/danielpatrickdp/adaptive-coach/internal/engine"
	"github.com/danielpatrickdp/adaptive-coach/internal/gate"
	"github.com/danielpatrickdp/adaptive-coach/internal/logging"
	"github.com/danielpatrickdp/adaptive-coach/internal/metrics"
	"github.com/danielpatrickdp/adaptive-coach/internal/policy"
	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/snapshot"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region run

func newRunCmd(a *app) *cobra.Command {
	var snapshotPath, metricsAddr string
	var once bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Step the engine on the configured schedule against a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Enabled {
				return errors.New("engine is disabled; set enabled: true in the config file")
			}

			store, err := state.NewStore(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer store.Close()

			var reg *prometheus.Registry
			if metricsAddr != "" {
				reg = prometheus.NewRegistry()
			}

			eng := engine.New(engine.Options{
				Enabled:   true,
				Backend:   store,
				RecordKey: a.cfg.RecordKey,
				Defaults:  a.cfg.Hyperparameters,
				Gate:      gate.GateConfig{MaxAbsValue: a.cfg.MaxAbsValue},
				Recorder:  a.cfg.RecorderOptions(),
				Logger:    a.logger,
				Metrics:   metrics.New(reg),
				Rand:      seededRand(a.cfg.Seed),
			})
			defer eng.Close()

			steps := logging.NewStepLog(store.DB())
			eng.Subscribe(func(rec recorder.StepRecord) {
				if err := steps.Log(rec); err != nil {
					a.logger.Warn("step log write failed", zap.Int("step", rec.Step), zap.Error(err))
				}
			})

			drv, err := driver.New(driver.Config{
				Engine:   eng,
				Source:   snapshot.FileSource{Path: snapshotPath},
				Schedule: a.cfg.Schedule,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			if once {
				rec, err := drv.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if reg != nil {
				srv := serveMetrics(metricsAddr, reg, a.logger)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			drv.Start(ctx)
			a.logger.Info("coach running",
				zap.String("db", a.cfg.DBPath),
				zap.String("snapshot", snapshotPath),
				zap.Time("next_run", drv.NextRun(time.Now())),
			)
			<-ctx.Done()
			drv.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to the snapshot YAML/JSON, re-read on every tick")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single step and print its record")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// seededRand returns a fixed-seed source, or nil (clock-seeded) for seed 0.
func seededRand(seed uint64) policy.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// #endregion run
