// PlevenLab Core - community makerspace backend.
//
// This is the main entry point for the PlevenLab Core service. It serves
// the members, categories, events and posts API over HTTP, optionally
// announcing content changes on MQTT and counting logins in InfluxDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/plevenlab/plevenlab-core/internal/api"
	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/auth"
	"github.com/plevenlab/plevenlab-core/internal/content"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/config"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/database"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/influxdb"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/logging"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/mqtt"
	"github.com/plevenlab/plevenlab-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "PLEVENLAB_CONFIG"
)

func main() {
	configFlag := flag.String("config", "", "path to the YAML configuration file")
	downFlag := flag.Bool("migrate-down", false, "roll back the latest database migration and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runFn := run
	if *downFlag {
		runFn = migrateDown
	}
	if err := runFn(ctx, configPath(*configFlag)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled.
// Shutdown happens in reverse start order through the deferred closers.
//
// Returns:
//   - error: nil on clean shutdown, or error describing the failed step
func run(ctx context.Context, path string) error {
	log := logging.Default()
	log.Info("starting PlevenLab Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, cfg.Service.Name, version)
	log.Info("configuration loaded", "path", path, "level", cfg.Logging.Level)

	// The issuer is built before anything touches disk so a bad key fails fast.
	issuer, err := auth.NewTokenIssuer([]byte(cfg.Security.JWT.Secret))
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path, "migrations_applied", len(applied))

	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log.With("component", "audit").Logger, cfg.Audit.BufferSize)
	recorder.Start()
	defer recorder.Close()

	users := auth.NewUserRepository(db.DB)
	password, err := auth.EnsureAdministrativeAccount(ctx, users, log.Logger)
	if err != nil {
		return fmt.Errorf("bootstrapping administrator: %w", err)
	}
	if password != "" {
		recorder.Record(audit.Entry{
			Action:     audit.ActionBootstrap,
			EntityType: "user",
			Source:     "system",
			Details:    map[string]any{"username": auth.AdminUsername},
		})
	}

	checks := map[string]api.HealthChecker{"database": db}
	deps := api.Deps{
		Config:    cfg.API,
		Secret:    []byte(cfg.Security.JWT.Secret),
		Logger:    log,
		Users:     auth.NewService(users, issuer),
		Content:   content.NewService(content.NewSQLiteRepository(db.DB)),
		AuditRepo: auditRepo,
		Audit:     recorder,
		Checks:    checks,
		Version:   version,
	}

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, log.With("component", "mqtt").Logger)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		deps.Notifier = mqtt.NewNotifier(mqttClient, mqttClient.Topics(), byte(cfg.MQTT.QoS)) //nolint:gosec // qos validated to 0..2
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		deps.Telemetry = influxClient
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal", "addr", cfg.Addr())
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// migrateDown rolls back the most recently applied migration of the
// configured database. The API is not started.
func migrateDown(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, cfg.Service.Name, version)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rolledBack, err := db.MigrateDown(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	if rolledBack == "" {
		log.Info("no migrations applied, nothing to roll back", "path", cfg.Database.Path)
		return nil
	}
	log.Info("migration rolled back", "version", rolledBack, "path", cfg.Database.Path)
	return nil
}

// configPath picks the config file: the -config flag wins, then
// PLEVENLAB_CONFIG, then the default.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(configEnvVar); p != "" {
		return p
	}
	return defaultConfigPath
}
