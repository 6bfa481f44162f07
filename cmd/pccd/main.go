// Command pccd is the Power Control Center supervisor daemon: it loads
// config.json, wires the collectors/evaluator/executor/planner chain of
// spec.md §4, and serves the PIR and evaluator-RPC HTTP surfaces of
// spec.md §6. Grounded on the teacher's own cmd/ entrypoints
// (e.g. dev-tools-backend/cmd/), which build every dependency by hand in
// main and call a package-level ListenServices/Run rather than reaching
// for a DI framework.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NotCoffee418/power-control-center/internal/acclient"
	"github.com/NotCoffee418/power-control-center/internal/actionlog"
	"github.com/NotCoffee418/power-control-center/internal/causereasons"
	"github.com/NotCoffee418/power-control-center/internal/collectors"
	"github.com/NotCoffee418/power-control-center/internal/config"
	"github.com/NotCoffee418/power-control-center/internal/evalrpc"
	"github.com/NotCoffee418/power-control-center/internal/executor"
	"github.com/NotCoffee418/power-control-center/internal/graphstore"
	"github.com/NotCoffee418/power-control-center/internal/nodeset"
	"github.com/NotCoffee418/power-control-center/internal/pir"
	"github.com/NotCoffee418/power-control-center/internal/pirapi"
	"github.com/NotCoffee418/power-control-center/internal/planner"
	"github.com/NotCoffee418/power-control-center/internal/snapshot"
	"github.com/NotCoffee418/power-control-center/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := logger.New(level)

	if err := run(*configPath, log); err != nil {
		log.Error("pccd exited with error", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	causes := causereasons.New(db)
	if err := causes.Reload(ctx); err != nil {
		return err
	}

	store := graphstore.New(db)
	registry := nodeset.NewDefault()
	alog := actionlog.New(db)

	endpoints := make(map[string]acclient.Endpoint, len(cfg.ACControllerEndpoints))
	for device, ep := range cfg.ACControllerEndpoints {
		endpoints[device] = acclient.Endpoint{URL: ep.Endpoint, APIKey: ep.APIKey}
	}
	client := acclient.New(endpoints)
	exec := executor.New(client, log)

	pirGate := pir.New(time.Duration(cfg.PirTimeoutMinutes) * time.Minute)
	snap := snapshot.New(exec, pirGate, exec)

	drv := planner.New(store, registry, causes, snap, pirGate, exec, alog, log, cfg.Devices())

	meter := collectors.NewMeterCollector(cfg.SmartMeterAPIEndpoint, snap, log)
	weather := collectors.NewWeatherCollector(cfg.WeatherAPIEndpoint, cfg.Latitude, cfg.Longitude, snap, log)
	deviceCollectors := make([]*collectors.DeviceTelemetryCollector, 0, len(cfg.ACControllerEndpoints))
	for device, ep := range cfg.ACControllerEndpoints {
		deviceCollectors = append(deviceCollectors, collectors.NewDeviceTelemetryCollector(device, ep.Endpoint, snap, drv, log))
	}

	go meter.Run(ctx)
	go weather.Run(ctx)
	for _, dc := range deviceCollectors {
		go dc.Run(ctx)
	}

	go drv.Run(ctx)

	mux := http.NewServeMux()
	pirapi.New(pirGate, drv, cfg.PirAPIKey, log).Register(mux)
	evalrpc.New(store, registry, log).Register(mux)

	addr := cfg.ListenAddress
	srv := &http.Server{Addr: addr + ":" + strconv.Itoa(cfg.ListenPort), Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
