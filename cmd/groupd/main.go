package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craigwongva/pz-access/pkg/conftools"
	"github.com/craigwongva/pz-access/pkg/geoserver"
	"github.com/craigwongva/pz-access/pkg/groupd/api"
	"github.com/craigwongva/pz-access/pkg/groupd/config"
	"github.com/craigwongva/pz-access/pkg/groupd/database"
	"github.com/craigwongva/pz-access/pkg/groupd/synchronizer"
	"github.com/craigwongva/pz-access/pkg/logging"
	"github.com/craigwongva/pz-access/pkg/telemetry"
	"github.com/craigwongva/pz-access/pkg/version"
	log "github.com/sirupsen/logrus"
)

var maskedConfig = []string{
	config.GeoServerPassword,
}

const (
	databaseConnectBackoffInterval = 3 * time.Second
	shutdownTimeout                = 10 * time.Second
)

func run() error {
	var db *database.Database

	cfg := config.Initialize()
	err := conftools.Load(cfg)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	// Welcome
	log.Infof("groupd %s", version.Version())
	ts, err := version.BuildTime()
	if err == nil {
		log.Infof("This version was built %s", ts.Local())
	}

	for _, line := range conftools.Format(maskedConfig) {
		log.Info(line)
	}

	if len(cfg.OpenTelemetry.Endpoint) > 0 {
		tracerProvider, err := telemetry.New(context.Background(), "groupd", cfg.OpenTelemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("set up OpenTelemetry: %w", err)
		}
		defer tracerProvider.Shutdown(context.Background())
		log.Infof("Sending traces to %s", cfg.OpenTelemetry.Endpoint)
	}

	geoserverClient, err := geoserver.New(geoserver.Config{
		URL:         cfg.GeoServer.URL,
		Workspace:   cfg.GeoServer.Workspace,
		Username:    cfg.GeoServer.Username,
		Password:    cfg.GeoServer.Password,
		FetchFormat: geoserver.FetchFormat(cfg.GeoServer.FetchFormat),
		HTTPClient: &http.Client{
			Timeout: cfg.GeoServer.Timeout,
		},
	})
	if err != nil {
		return fmt.Errorf("set up GeoServer client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseConnectTimeout)
	for {
		log.Infof("Connecting to database...")
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err == nil {
			log.Infof("Database connection established.")
			break
		} else if ctx.Err() != nil {
			break
		} else {
			log.Errorf("unable to connect to database: %s", err)
			time.Sleep(databaseConnectBackoffInterval)
		}
	}
	cancel()
	if err != nil {
		return fmt.Errorf("setup postgres connection: %s", err)
	}
	defer db.Close()

	err = db.Migrate(context.Background())
	if err != nil {
		return fmt.Errorf("migrating database: %s", err)
	}

	sync := synchronizer.New(synchronizer.Config{
		Registry: db,
		Client:   geoserverClient,
	})

	router := api.New(api.Config{
		DeploymentGroupStore: db,
		Synchronizer:         sync,
		MetricsPath:          cfg.MetricsPath,
		HealthCheck: func(r *http.Request) error {
			return db.Ping(r.Context())
		},
	})

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error(err)
		}
	}()

	log.Infof("Ready to accept connections on %s", cfg.ListenAddress)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals

	log.Infof("Received signal %s (%d), exiting...", sig, sig)

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(ctx)
}

func main() {
	err := run()
	if err != nil {
		log.Errorf("Fatal error: %s", err)
		os.Exit(1)
	}
}
