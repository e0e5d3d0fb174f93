package main

import (
	"context"
	"database/sql"
	"fmt"

	"heating_scheduler/internal/calendar"
	"heating_scheduler/internal/config"
	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/metrics"
	"heating_scheduler/internal/notify"
	"heating_scheduler/internal/repository"
	"heating_scheduler/internal/repository/db"
	"heating_scheduler/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the wired process for one command invocation.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *sql.DB
	registry  *prometheus.Registry
	publisher notify.Publisher
	services  *service.Service
}

func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logger.Init(cfg.Logs.Level, cfg.Logs.Directory)
	if err != nil {
		log.Warnw("log_file_unavailable", "dir", cfg.Logs.Directory, "err", err)
	}

	a := &app{cfg: cfg, log: log}
	a.db, err = db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite %q: %w", cfg.DB.Path, err)
	}
	repos := repository.NewRepository(a.db)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := service.Deps{
		Settings: service.SettingsFromConfig(cfg),
		Ledger:   ledgerStore(cfg, repos),
		Tariff:   service.BuildTariff(cfg, log),
		Metrics:  metrics.New(a.registry),
		Log:      log,
	}
	if deps.Families, err = service.BuildFamilies(cfg, log); err != nil {
		a.Close()
		return nil, err
	}
	if deps.Calendar, err = calendarSource(ctx, cfg, log); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.MQTT.Enabled {
		pub, err := notify.NewRealPublisher(notify.BrokerOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
		})
		if err != nil {
			// notifications are optional
			log.Warnw("mqtt_unavailable", "broker", cfg.MQTT.Broker, "err", err)
		} else {
			a.publisher = pub
			deps.Publisher = pub
		}
	}

	a.services = service.NewService(repos, deps)
	log.Debugw("app_wired", "families", len(deps.Families), "ledger_backend", cfg.Ledger.Backend,
		"tariff", deps.Tariff != nil, "calendar", deps.Calendar != nil, "mqtt", a.publisher != nil)
	return a, nil
}

func ledgerStore(cfg *config.Config, repos *repository.Repository) ledger.Store {
	if cfg.Ledger.Backend == config.LedgerBackendSQLite {
		return repos.LedgerRepo
	}
	return ledger.NewFileStore(cfg.SetHeaters.Inputs.Status)
}

// calendarSource returns nil when no calendar credentials are configured.
func calendarSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (service.CalendarSource, error) {
	g := cfg.GetSchedules.Providers.Google
	if g.Credentials == "" {
		return nil, nil
	}
	raw, err := config.ReadCredentials(g.Credentials)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	src, err := calendar.NewSource(ctx, raw, g.CalendarID, g.MaxResults, cfg.Timezone, log)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warnw("mqtt_close_failed", "err", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Errorw("sqlite_close_failed", "err", err)
		}
	}
	_ = a.log.Sync()
}
