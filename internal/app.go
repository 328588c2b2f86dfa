// Package internal provides the App struct that wires all components of the
// onboarding backend together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/assignment"
	"github.com/stampedhq/onboard/internal/cli"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/logging"
	"github.com/stampedhq/onboard/internal/notify"
	"github.com/stampedhq/onboard/internal/observability"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/screening"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

// Environment variable that pins the workspace directory.
const homeEnv = "ONB_HOME"

// App holds all service dependencies of the onboarding backend.
type App struct {
	BasePath string
	Config   *models.GlobalConfig
	Logger   zerolog.Logger

	// Storage layer
	Store *storage.CollectionStore

	// Core services
	Bus       *realtime.Bus
	Directory assignment.Directory
	Inbox     *notify.Inbox
	Sink      notify.Sink
	Repo      core.Repository
	Screener  *screening.Screener

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator

	detachJournal func()
}

// NewApp creates and wires all components. basePath is the workspace
// directory holding .onboardconfig and the data directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	cfgMgr := core.NewConfigurationManager(basePath)
	cfg, err := cfgMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if err := cfgMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg
	app.Logger = logging.New(cfg.LogLevel, nil)

	// --- Storage layer ---
	sub, err := openSubstrate(basePath, cfg.Storage)
	if err != nil {
		return nil, err
	}
	app.Store = storage.NewCollectionStore(sub, app.Logger)

	sim := latency.None()
	if cfg.Latency.Enabled {
		sim = latency.New(core.LatencyProfile(cfg.Latency))
	}

	// --- Core services ---
	app.Bus = realtime.NewBus(
		realtime.WithHistorySize(cfg.HistorySize),
		realtime.WithLogger(app.Logger),
	)
	app.Directory = assignment.NewDirectory(assignment.Config{
		Store:   app.Store,
		Latency: sim,
		Logger:  app.Logger,
	})
	app.Inbox = notify.NewInbox(app.Store, nil, app.Logger)
	app.Sink = app.Inbox
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Sink = notify.Fanout(app.Inbox, notify.NewSlackSink(cfg.Notifications.Slack.WebhookURL))
	}

	app.Repo = core.NewRepository(core.RepositoryDeps{
		Store:    app.Store,
		Bus:      app.Bus,
		Officers: app.Directory,
		Sink:     app.Sink,
		Latency:  sim,
		Logger:   app.Logger,
	})

	// --- Observability ---
	if cfg.Storage.Driver == "memory" {
		app.EventLog = observability.NewMemoryEventLog()
	} else {
		eventLogPath := filepath.Join(resolvePath(basePath, cfg.Storage.Path), "events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without a journal.
			app.Logger.Warn().Err(err).Str("path", eventLogPath).Msg("event journal disabled")
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.detachJournal = observability.AttachJournal(app.Bus, app.EventLog, nil, app.Logger)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	thresholds := observability.DefaultAlertThresholds()
	if cfg.Alerts.ReviewDays > 0 {
		thresholds.ReviewDays = cfg.Alerts.ReviewDays
	}
	thresholds.RiskReviewGraceDays = cfg.Alerts.RiskReviewGraceDays
	app.AlertEngine = observability.NewAlertEngine(app.Repo, app.EventLog, thresholds, nil)

	// --- Adverse media screening ---
	if key := os.Getenv(cfg.Screening.APIKeyEnv); key != "" {
		model, err := screening.NewOpenAIModel(cfg.Screening, key)
		if err != nil {
			app.Logger.Warn().Err(err).Msg("adverse media screening disabled")
		} else {
			app.Screener = screening.New(screening.Config{
				Model:             model,
				Temperature:       cfg.Screening.Temperature,
				MaxTokens:         cfg.Screening.MaxTokens,
				RequestsPerMinute: cfg.Screening.RequestsPerMinute,
				Logger:            app.Logger,
			})
		}
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Logger = app.Logger
	cli.Repo = app.Repo
	cli.Directory = app.Directory
	cli.Inbox = app.Inbox
	cli.Bus = app.Bus
	cli.Sink = app.Sink
	cli.Screener = nil
	if app.Screener != nil {
		cli.Screener = app.Screener
	}

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// openSubstrate picks the persistence substrate for the configured driver.
func openSubstrate(basePath string, cfg models.StorageConfig) (storage.Substrate, error) {
	dir := resolvePath(basePath, cfg.Path)
	switch cfg.Driver {
	case "memory":
		return storage.NewMemorySubstrate(), nil
	case "sqlite":
		return storage.OpenSQLiteSubstrate(filepath.Join(dir, "onboard.db"))
	case "file", "":
		return storage.NewFileSubstrate(dir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// Close detaches the journal from the bus, releases the event log file
// handle and closes the storage substrate. Calling it again is a no-op.
func (a *App) Close() error {
	if a.detachJournal != nil {
		a.detachJournal()
		a.detachJournal = nil
	}
	var errs []error
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
		a.EventLog = nil
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the workspace directory. It checks ONB_HOME,
// then walks up from the working directory looking for .onboardconfig, and
// falls back to the working directory.
func ResolveBasePath() string {
	if home := os.Getenv(homeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
