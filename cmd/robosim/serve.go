package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/robosim/internal/observability"
	"github.com/san-kum/robosim/internal/registry"
	"github.com/san-kum/robosim/internal/sim"
	"github.com/san-kum/robosim/internal/telemetry"
)

var (
	serveAddr string
	serveRate float64
	serveOnce bool
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if !(serveRate > 0) {
		return fmt.Errorf("rate must be positive, got %v", serveRate)
	}

	s, err := newSimulator(registry.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	collector, err := observability.NewSimCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	hub := telemetry.NewHub()
	s.AddObserver(collector)
	s.AddObserver(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", collector.Handler())
	telemetry.NewServer(hub, s).Routes(mux)

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- pace(ctx, s, collector)
		cancel()
	}()

	logrus.Infof("listening on %s (%d robots, %.2fx real time)", serveAddr, len(cfg.Robots), serveRate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pace steps s in real time scaled by serveRate. When the configured
// duration has elapsed or a collision stops the run, the world is rebuilt
// unless serveOnce is set.
func pace(ctx context.Context, s *sim.Simulator, collector *observability.SimCollector) error {
	cfg := s.Config()
	period := time.Duration(cfg.Dt / serveRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		start := time.Now()
		_, err := s.Step()
		collector.ObserveTick(time.Since(start))

		finished := s.Time() >= cfg.Duration-cfg.Dt/2
		if err != nil {
			if !errors.Is(err, sim.ErrCollision) {
				return err
			}
			finished = true
		}
		if !finished {
			continue
		}
		if serveOnce {
			logrus.Infof("run finished at t=%.2fs", s.Time())
			return nil
		}
		logrus.Infof("run finished at t=%.2fs, restarting", s.Time())
		s.RequestReset()
	}
}
