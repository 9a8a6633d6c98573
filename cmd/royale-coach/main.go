package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"jordanella.com/royale-coach/internal/config"
	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/database"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/game"
	"jordanella.com/royale-coach/internal/gui"
	"jordanella.com/royale-coach/internal/logging"
	"jordanella.com/royale-coach/internal/monitor"
	"jordanella.com/royale-coach/internal/pipeline"
	"jordanella.com/royale-coach/pkg/templates"
)

var logger = logging.NewLogger("Main")

func main() {
	configPath := flag.String("config", "coach.yaml", "Path to the YAML settings file (created with defaults when missing)")
	iniPath := flag.String("ini", "Settings.ini", "Optional legacy INI overrides")
	headless := flag.Bool("headless", false, "Run without the status window")
	replayDir := flag.String("replay", "", "Replay frames from a directory instead of capturing the screen")
	autoMatch := flag.Bool("match", false, "Start a match immediately (headless)")
	flag.Parse()

	settings := loadSettings(*configPath, *iniPath)
	if *replayDir != "" {
		settings.Capture.Method = "replay"
		settings.Capture.ReplayDir = *replayDir
	}
	logging.SetDefaultLevel(logging.ParseLevel(settings.Runtime.LogLevel))

	if err := run(settings, *headless, *autoMatch); err != nil {
		logger.Error("Coach stopped with an error", err)
		os.Exit(1)
	}
}

// loadSettings never fails: broken files fall back to defaults with a warning
func loadSettings(configPath, iniPath string) *config.Settings {
	settings, err := config.LoadOrCreate(configPath)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to load %s, using defaults: %v", configPath, err))
		settings = config.Default()
	}

	if _, statErr := os.Stat(iniPath); statErr == nil {
		if err := config.ApplyINI(iniPath, settings); err != nil {
			logger.Warn(fmt.Sprintf("Failed to apply %s: %v", iniPath, err))
		}
	}

	if err := settings.Validate(); err != nil {
		logger.Warn(fmt.Sprintf("Invalid settings, using defaults: %v", err))
		settings = config.Default()
	}
	return settings
}

func run(settings *config.Settings, headless, autoMatch bool) error {
	bus := events.NewEventBus(settings.Runtime.EventBufferSize)
	defer bus.Stop()

	eventLogger, err := logging.NewEventLogger(bus, settings.Runtime.LogDir)
	if err != nil {
		logger.Warn(fmt.Sprintf("Event log disabled: %v", err))
	} else {
		defer eventLogger.Close()
		logger.Info(fmt.Sprintf("Writing events to %s", eventLogger.Path()))
	}

	reporter := logging.NewErrorReporter()
	reporter.OnError(logging.ErrorSeverityHigh, func(report *logging.ErrorReport) {
		if report.Error == nil {
			return
		}
		bus.PublishAsync(events.NewErrorEvent(string(report.Category), report.Component, report.Error, report.Context))
	})

	source, err := openSource(settings)
	if err != nil {
		return err
	}

	templateSet, catalog := loadTemplates(settings, reporter)

	opts := pipeline.Options{
		Recording: pipeline.RecordingFromSettings(settings),
		Frames:    pipeline.FrameSaverFromSettings(settings),
		Bus:       bus,
		Reporter:  reporter,
		Monitor:   monitor.NewTickMonitor(settings.Runtime.MaxCaptureFailures),
	}

	if settings.Training.Enabled && settings.Training.DatabasePath != "" {
		db, err := openIndex(settings.Training.DatabasePath)
		if err != nil {
			reporter.ReportError(logging.ErrorCategoryStorage, logging.ErrorSeverityMedium, "Main",
				"Sample index disabled", err)
		} else {
			defer db.Close()
			store := database.NewSampleStore(db)
			opts.Sink = store
			opts.Matches = store
		}
	}

	p, err := pipeline.New(pipeline.DetectorsFromSettings(settings, templateSet, catalog), opts)
	if err != nil {
		return err
	}
	defer p.Close(time.Now())

	runner := pipeline.NewRunner(p, source, settings.TickInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if headless {
		return runHeadless(ctx, p, runner, autoMatch)
	}
	return runWindow(ctx, p, runner, bus)
}

func openSource(settings *config.Settings) (*cv.Service, error) {
	captureConfig, err := settings.CaptureSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to read capture settings: %w", err)
	}

	capturer, err := cv.NewCapturer(captureConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame source: %w", err)
	}

	service := cv.NewService(capturer)
	service.SetTitleBarHeight(settings.Capture.TitleBarHeight)
	return service, nil
}

// loadTemplates degrades to an unread hand when no card images are usable
func loadTemplates(settings *config.Settings, reporter *logging.ErrorReporter) ([]cv.CardTemplate, game.CardCatalog) {
	set, err := templates.LoadSet(settings.ManifestPath(), settings.Cards.TemplateDir, settings.Cards.SampleSize, game.DefaultCatalog())
	switch {
	case err != nil && len(set.Templates) == 0:
		reporter.ReportError(logging.ErrorCategoryConfig, logging.ErrorSeverityMedium, "Main",
			"Card templates unavailable, the hand will not be read", err)
	case err != nil:
		reporter.ReportError(logging.ErrorCategoryConfig, logging.ErrorSeverityLow, "Main",
			"Some card templates were skipped", err)
	}

	logger.InfoWithContext("Card templates loaded", map[string]interface{}{
		"templates": len(set.Templates),
		"cards":     set.Cards,
	})
	return set.Templates, set.Catalog
}

func openIndex(path string) (*database.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func runHeadless(ctx context.Context, p *pipeline.Pipeline, runner *pipeline.Runner, autoMatch bool) error {
	if autoMatch {
		if _, err := p.StartMatch(time.Now()); err != nil {
			logger.Warn(fmt.Sprintf("Match started with degraded recording: %v", err))
		}
	}

	if err := runner.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		runner.Stop()
	case <-runner.Done():
	}

	stats := p.Monitor().Snapshot()
	logger.InfoWithContext("Runner stopped", map[string]interface{}{
		"ticks":            stats.Ticks,
		"capture_failures": stats.CaptureFailures,
		"overruns":         stats.Overruns,
		"samples":          p.Match().Samples,
	})
	return runner.Err()
}

func runWindow(ctx context.Context, p *pipeline.Pipeline, runner *pipeline.Runner, bus events.EventBus) error {
	coachApp := app.NewWithID("com.jordanella.royale-coach")
	coachApp.Settings().SetTheme(&gui.CoachTheme{})

	mainWindow := coachApp.NewWindow("Royale Coach")
	mainWindow.Resize(gui.DefaultWindowSize)

	status := gui.NewStatusWindow(coachApp, mainWindow, p, bus)
	runner.OnTick(status.OnTick)

	mainWindow.SetContent(status.BuildUI())
	mainWindow.SetMaster()

	if err := runner.Start(ctx); err != nil {
		return err
	}

	// a signal closes the window the same way the user would
	go func() {
		<-ctx.Done()
		coachApp.Quit()
	}()

	mainWindow.ShowAndRun()

	runner.Stop()
	status.Shutdown()
	return runner.Err()
}
