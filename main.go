package main

import (
	"embed"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/getlantern/systray"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"maa-se/internal/audit"
	"maa-se/internal/config"
	"maa-se/internal/engineffi"
	"maa-se/internal/eventrouter"
	"maa-se/internal/httpapi"
	"maa-se/internal/logger"
	"maa-se/internal/runhistory"
	"maa-se/internal/session"
	"maa-se/internal/updater"
	"maa-se/internal/version"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/appicon.png
var appIcon []byte

// httpControlPort is the loopback port the HTTP control surface binds to,
// alongside the Wails bridge the desktop front-end uses.
const httpControlPort = 47811

func main() {
	workDir, err := os.Getwd()
	if err != nil {
		println("Error resolving working directory:", err.Error())
		return
	}

	log, wailsHandler, err := logger.New(workDir, os.Stdout)
	if err != nil {
		println("Error initializing logger:", err.Error())
		return
	}

	cfg := config.NewManager(filepath.Join(workDir, "config"))
	verStore := version.NewStore(workDir)

	history, err := runhistory.Open(filepath.Join(workDir, "debug", "history.db"))
	if err != nil {
		log.Error("history_store_init_failed", "error", err)
		println("Error initializing run history store:", err.Error())
		return
	}
	defer history.Close()

	auditLog, err := audit.Open(log, workDir)
	if err != nil {
		log.Error("audit_log_init_failed", "error", err)
		println("Error initializing audit log:", err.Error())
		return
	}
	defer auditLog.Close()

	router := eventrouter.New(log, nil)

	lib := engineffi.NewLibrary()
	libDir := filepath.Join(workDir, "lib")
	resDir := filepath.Join(workDir, "resource")
	sessionMgr := session.NewManager(log, lib, router, libDir, resDir)

	upd := updater.New(log, verStore, sessionMgr.Reload)

	var rateSettings config.DownloadRateSettings
	if ok, err := cfg.Get(configGroup, "DownloadRate", &rateSettings); err != nil {
		log.Warn("download_rate_settings_load_failed", "error", err)
	} else if ok {
		upd.SetRateLimit(rateSettings.BytesPerSec)
	}

	app := NewApp(log, wailsHandler, router, sessionMgr, cfg, verStore, upd, history, auditLog)

	// No audit log for the HTTP server: every App command already writes
	// its own audit entry, so passing auditLog here would record each HTTP
	// call twice.
	httpServer := httpapi.New(log, app, nil, history)
	go func() {
		if err := httpServer.ListenAndServe(httpControlPort); err != nil {
			log.Error("http_control_surface_failed", "error", err)
		}
	}()

	waitForSignals(func() {
		log.Info("os_signal_received_shutting_down")
		app.QuitApp()
	})

	startHidden := false
	for _, arg := range os.Args {
		if arg == "--minimized" {
			startHidden = true
		}
	}

	go func() {
		systray.Run(func() {
			systray.SetIcon(appIcon)
			systray.SetTitle("MAA Session Control")
			systray.SetTooltip("MAA Engine Control Plane")

			mOpen := systray.AddMenuItem("Open", "Restore the window")
			mRunDaily := systray.AddMenuItem("Run Daily", "Start the daily task queue")
			mStop := systray.AddMenuItem("Stop", "Stop the active session")
			systray.AddSeparator()
			mQuit := systray.AddMenuItem("Quit", "Quit the application")

			go func() {
				for {
					select {
					case <-mOpen.ClickedCh:
						app.ShowApp()
					case <-mRunDaily.ClickedCh:
						// RunDaily blocks for the whole session; run it off
						// this loop so the Stop item stays responsive.
						go func() {
							if err := app.RunDaily(); err != nil {
								log.Error("tray_run_daily_failed", "error", err)
							}
						}()
					case <-mStop.ClickedCh:
						app.StopCore()
					case <-mQuit.ClickedCh:
						app.QuitApp()
					}
				}
			}()
		}, func() {})
	}()

	appMenu := menu.NewMenu()
	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Open", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		app.ShowApp()
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		app.QuitApp()
	})

	err = wails.Run(&options.App{
		Title:  "MAA Session Control",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnBeforeClose:    app.beforeClose,
		StartHidden:      startHidden,
		Menu:             appMenu,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		println("Error:", err.Error())
	}
}

// waitForSignals runs onSignal once in its own goroutine the first time
// SIGINT or SIGTERM arrives, matching a graceful-shutdown desktop app's
// usual signal handling without blocking main's own startup sequence.
func waitForSignals(onSignal func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		onSignal()
	}()
}
