// cmd/sensorlink/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-sensorlink/internal/bridge"
	"github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/link"
	"github.com/tamzrod/modbus-sensorlink/internal/logging"
	"github.com/tamzrod/modbus-sensorlink/internal/metrics"
	"github.com/tamzrod/modbus-sensorlink/internal/ports"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
	"github.com/tamzrod/modbus-sensorlink/internal/writer"
)

// consumerBuffer bounds each event consumer; a full consumer drops events.
const consumerBuffer = 64

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: sensorlink <config.yaml>")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "sensorlink: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	// --------------------
	// Environment + config
	// --------------------

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadAndPrepare(cfgPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// --------------------
	// Metrics
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	if cfg.Metrics.Listen != "" {
		serveMetrics(ctx, g, cfg.Metrics, reg, log)
	}

	// --------------------
	// Core
	// --------------------

	core, err := link.New(cfg, link.CoreDeps{
		Opener:  session.NewBuilder(session.SettingsFrom(cfg), log),
		Lister:  ports.NewSerialEnumerator(log),
		Metrics: m,
		Log:     log,
	})
	if err != nil {
		return err
	}

	// --------------------
	// Event consumers
	// --------------------

	logCh := make(chan event.Event, consumerBuffer)
	outs := []chan<- event.Event{logCh}
	g.Go(func() error {
		logEvents(ctx, log, logCh)
		return nil
	})

	if cfg.MQTT.Enabled() {
		b := bridge.New(cfg.MQTT, core.Sender(), log)
		defer b.Close()

		ch := make(chan event.Event, consumerBuffer)
		outs = append(outs, ch)
		g.Go(func() error {
			if err := b.Connect(ctx); err != nil {
				return ignoreCancel(ctx, err)
			}
			return b.Run(ctx, ch)
		})
	}

	if cfg.Mirror.Enabled() {
		mr, err := writer.New(cfg.Mirror, log)
		if err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		defer mr.Close()

		ch := make(chan event.Event, consumerBuffer)
		outs = append(outs, ch)
		g.Go(func() error { return mr.Run(ctx, ch) })
	}

	g.Go(func() error {
		defer core.Detach()
		fanout(ctx, log, core.Events(), outs)
		return nil
	})

	g.Go(func() error {
		defer core.Sender().Close()
		return core.Run(ctx)
	})

	log.Info().
		Int("baud", cfg.Serial.BaudRate).
		Uint16("registers", cfg.Poll.Registers).
		Bool("mqtt", cfg.MQTT.Enabled()).
		Bool("mirror", cfg.Mirror.Enabled()).
		Msg("sensorlink started")

	err = g.Wait()
	log.Info().Msg("sensorlink stopped")
	return err
}

func serveMetrics(ctx context.Context, g *errgroup.Group, cfg config.MetricsConfig, reg *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		log.Info().Str("listen", cfg.Listen).Str("path", cfg.Path).Msg("metrics endpoint")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func ignoreCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
