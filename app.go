package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"maa-se/internal/audit"
	"maa-se/internal/config"
	"maa-se/internal/eventrouter"
	"maa-se/internal/logger"
	"maa-se/internal/runhistory"
	"maa-se/internal/session"
	"maa-se/internal/taskqueue"
	"maa-se/internal/updater"
	"maa-se/internal/version"
)

// configGroup is the single device profile this build operates against.
// Multiple groups are supported by the config cache's on-disk layout but
// the desktop front-end only ever drives one at a time.
const configGroup = "default"

// App is the Wails-bound application struct: one instance per process,
// wiring together every component the Command Surface exposes.
type App struct {
	ctx          context.Context
	logger       *slog.Logger
	wailsHandler *logger.WailsHandler
	router       *eventrouter.Router
	session      *session.Manager
	cfg          *config.Manager
	verStore     *version.Store
	updater      *updater.Updater
	history      *runhistory.Store
	audit        *audit.Log

	isQuitting bool
}

// NewApp wires an App from its already-constructed components.
func NewApp(
	logger *slog.Logger,
	wailsHandler *logger.WailsHandler,
	router *eventrouter.Router,
	sessionMgr *session.Manager,
	cfg *config.Manager,
	verStore *version.Store,
	upd *updater.Updater,
	history *runhistory.Store,
	auditLog *audit.Log,
) *App {
	return &App{
		logger:       logger,
		wailsHandler: wailsHandler,
		router:       router,
		session:      sessionMgr,
		cfg:          cfg,
		verStore:     verStore,
		updater:      upd,
		history:      history,
		audit:        auditLog,
	}
}

// record writes one Audit Log entry for a Command Surface invocation,
// mirroring httpapi.Server's record helper so both surfaces produce the
// same audit trail shape.
func (a *App) record(command string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	a.audit.Record(command, err == nil, detail)
}

// startup is called once Wails has a runtime context; it wires that
// context into every component that needs to emit GUI events.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.wailsHandler.SetContext(ctx)
	a.audit.SetContext(ctx)
	a.router.SetSink(func(line string) {
		runtime.EventsEmit(a.ctx, "callback-log", line)
	})
	a.logger.Info("app_started")
}

// beforeClose hides the window to the tray instead of exiting, unless
// QuitApp already set isQuitting.
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	if a.isQuitting {
		return false
	}
	runtime.WindowHide(ctx)
	return true
}

// QuitApp exits the process for real, called from the tray menu.
func (a *App) QuitApp() {
	a.isQuitting = true
	a.session.RequestStop()
	runtime.Quit(a.ctx)
}

// ShowApp restores the window from the tray.
func (a *App) ShowApp() {
	runtime.WindowShow(a.ctx)
	runtime.WindowSetAlwaysOnTop(a.ctx, true)
	runtime.WindowSetAlwaysOnTop(a.ctx, false)
}

// RunDaily is the run_daily command: it builds the task queue from the
// current config and runs one session, returning only once that session
// has ended (the Engine finished, stop_core was called, or a step failed)
// with the session's error, if any. The run is also written to the Run
// History store.
func (a *App) RunDaily() error {
	a.logger.Info("frontend_request", "method", "RunDaily")

	named, order, err := a.cfg.DailyTasks(configGroup)
	if err != nil {
		a.record("run_daily", err)
		return fmt.Errorf("run_daily: load daily tasks: %w", err)
	}
	queue := taskqueue.Build(named, order)

	var adb config.AdbSettings
	if ok, err := a.cfg.Get(configGroup, "Adb", &adb); err != nil {
		a.record("run_daily", err)
		return fmt.Errorf("run_daily: load adb settings: %w", err)
	} else if !ok {
		adb = config.DefaultAdbSettings()
	}

	started := make(chan error, 1)
	go func() {
		startedAt := time.Now()
		names := make([]string, 0, queue.Len())
		for _, e := range queue.Entries() {
			names = append(names, e.Name)
		}
		tasksJSON, _ := json.Marshal(names)

		err := a.session.Run(context.Background(), queue, adb)
		started <- err

		record := runhistory.RunRecord{
			StartedAt: startedAt.Format(time.RFC3339),
			EndedAt:   time.Now().Format(time.RFC3339),
			TasksJSON: string(tasksJSON),
			Outcome:   "completed",
		}
		if err != nil {
			record.Outcome = "error"
			record.Error = err.Error()
			a.logger.Error("run_daily_failed", "error", err)
		}
		if saveErr := a.history.RecordRun(record); saveErr != nil {
			a.logger.Error("run_history_save_failed", "error", saveErr)
		}
	}()

	err = <-started
	a.record("run_daily", err)
	return err
}

// StopCore is the stop_core command: non-blocking request to stop the
// active session, if any.
func (a *App) StopCore() {
	a.logger.Info("frontend_request", "method", "StopCore")
	a.session.RequestStop()
	a.record("stop_core", nil)
}

// UpdateConfig is the update_config command.
func (a *App) UpdateConfig(name string, params taskqueue.Parameters) error {
	a.logger.Info("frontend_request", "method", "UpdateConfig", "name", name)
	err := a.cfg.Set(configGroup, name, params)
	a.record("update_config", err)
	return err
}

// GetConfig is the get_config command: a JSON string of the full config.
func (a *App) GetConfig() (string, error) {
	a.logger.Info("frontend_request", "method", "GetConfig")
	payload, err := a.cfg.Dump(configGroup)
	a.record("get_config", err)
	return payload, err
}

// SetLogLevel is the set_log_level command, narrowing what reaches the
// GUI event bus without touching the file/console sinks.
func (a *App) SetLogLevel(level string) error {
	a.logger.Info("frontend_request", "method", "SetLogLevel", "level", level)
	parsed, err := parseLevel(level)
	if err != nil {
		a.record("set_log_level", err)
		return err
	}
	a.wailsHandler.SetLevel(parsed)
	a.record("set_log_level", nil)
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "error":
		return slog.LevelError, nil
	case "warn":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug", "trace":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("set_log_level: unrecognized level %q", level)
	}
}

// Update is the update command.
func (a *App) Update(targetType string) (string, error) {
	a.logger.Info("frontend_request", "method", "Update", "target_type", targetType)

	channel := version.Channel(targetType)
	versions, err := a.verStore.Load()
	if err != nil {
		err = fmt.Errorf("update: load current version: %w", err)
		a.record("update", err)
		return "", err
	}

	result, err := a.updater.Update(context.Background(), versions.Client, channel, ".")
	a.recordUpdate("client", result, err)
	a.record("update", err)
	if err != nil {
		return "", err
	}
	return result.Kind.String(), nil
}

// UpdateResource is the update_resource command.
func (a *App) UpdateResource() (string, error) {
	a.logger.Info("frontend_request", "method", "UpdateResource")

	versions, err := a.verStore.Load()
	if err != nil {
		err = fmt.Errorf("update_resource: load current version: %w", err)
		a.record("update_resource", err)
		return "", err
	}

	result, err := a.updater.UpdateResource(context.Background(), versions.Resource, ".")
	a.recordUpdate("resource", result, err)
	a.record("update_resource", err)
	if err != nil {
		return "", err
	}
	return result.Kind.String(), nil
}

// SetDownloadRateLimit is the set_download_rate_limit command: it caps
// the Update Orchestrator's download throughput and persists the cap to
// config so it survives a restart. bytesPerSec <= 0 clears the cap.
func (a *App) SetDownloadRateLimit(bytesPerSec int64) error {
	a.logger.Info("frontend_request", "method", "SetDownloadRateLimit", "bytes_per_sec", bytesPerSec)
	err := a.cfg.Set(configGroup, "DownloadRate", config.DownloadRateSettings{BytesPerSec: bytesPerSec})
	a.record("set_download_rate_limit", err)
	if err != nil {
		return err
	}
	a.updater.SetRateLimit(bytesPerSec)
	return nil
}

func (a *App) recordUpdate(kind string, result updater.Result, err error) {
	record := runhistory.UpdateRecord{
		Kind:      kind,
		StartedAt: time.Now().Format(time.RFC3339),
		Result:    result.Kind.String(),
	}
	if err != nil {
		record.Result = "error"
		record.Error = err.Error()
	} else if result.Kind == updater.ClientSuccess {
		record.Version = result.NewClient.String()
	} else if result.Kind == updater.ResourceSuccess {
		record.Version = result.NewResource.LastUpdated
	}
	if saveErr := a.history.RecordUpdate(record); saveErr != nil {
		a.logger.Error("update_history_save_failed", "error", saveErr)
	}
}
