package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"smart-classroom/internal/camera"
	"smart-classroom/internal/database"
	"smart-classroom/internal/eventloop"
	"smart-classroom/internal/mqtt"
	"smart-classroom/internal/profile"
	"smart-classroom/internal/records"
	"smart-classroom/internal/sensor"
	"smart-classroom/internal/services"
	"smart-classroom/internal/tui"
	"smart-classroom/pkg/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "classroom:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	// === Logging ===
	// The dashboard owns the terminal, so logs go to a file there
	var logOutput io.Writer = os.Stderr
	if !cfg.Headless {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		logOutput = logFile
	}
	logger, err := config.NewLogger(cfg, logOutput)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting smart classroom", "room", cfg.Room, "camera", cfg.CameraMode, "headless", cfg.Headless)

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// === Room profiles ===
	profiles := profile.Builtin()
	if cfg.RoomProfilesFile != "" {
		profiles, err = profile.LoadFile(cfg.RoomProfilesFile)
		if err != nil {
			return err
		}
		logger.Info("room profiles loaded", "path", cfg.RoomProfilesFile, "rooms", profiles.Rooms())
	}

	// === Record stores ===
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	csvStore := records.NewCSVStore(cfg.EnvironmentLogPath(), cfg.SignInLogPath(), logger)
	stores := records.Multi{csvStore}

	var sqliteStore *records.SQLiteStore
	if cfg.SQLitePath != "" {
		sqliteStore, err = records.NewSQLiteStore(cfg.SQLitePath, cfg.Room)
		if err != nil {
			return fmt.Errorf("failed to open SQLite mirror: %w", err)
		}
		defer sqliteStore.Close()
		stores = append(stores, sqliteStore)

		rows, err := sqliteStore.CountEnvironment(ctx)
		if err != nil {
			logger.Warn("failed to count SQLite environment rows", "error", err)
		}
		logger.Info("SQLite mirror enabled", "path", cfg.SQLitePath, "environment_rows", rows)
	}

	if cfg.ClickHouseEnabled {
		db, err := database.NewClickHouseDB(ctx, database.Config{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
			Room:     cfg.Room,
		}, logger)
		if err != nil {
			logger.Error("ClickHouse mirror disabled", "error", err)
		} else {
			defer db.Close()
			stores = append(stores, db)
		}
	}

	// === MQTT ===
	var mqttClient *mqtt.Client
	if cfg.MQTTEnabled || cfg.CameraMode == config.CameraModeMQTT {
		mqttClient, err = mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger)
		if err != nil {
			logger.Error("MQTT unavailable", "error", err)
		} else {
			defer mqttClient.Close()
		}
	}

	if cfg.MQTTEnabled && mqttClient != nil {
		publisher := mqtt.NewPublisher(mqttClient, mqtt.PublisherConfig{
			Room:             cfg.Room,
			EnvironmentTopic: cfg.MQTTTopicEnvironment,
			ControlTopic:     cfg.MQTTTopicControl,
			SignInTopic:      cfg.MQTTTopicSignIn,
		}, logger)
		go publisher.Start(ctx)
		stores = append(stores, publisher)
	}

	// === Camera ===
	source, err := newCamera(cfg, mqttClient, logger)
	if err != nil {
		return err
	}

	// === Event loop and services ===
	// The loop outlives the signal context so shutdown tasks still run on it
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := eventloop.New(logger, 256)
	go loop.Run(loopCtx)

	rt := services.NewRuntime(ctx, loop, services.Options{
		Room:              cfg.Room,
		Profiles:          profiles,
		Sensor:            sensor.NewSimulator(cfg.BaseTemperature, cfg.BaseLight, nil),
		Camera:            source,
		Store:             stores,
		Loader:            signInLoader(csvStore, sqliteStore),
		MonitorInterval:   cfg.MonitorInterval,
		OccupancyInterval: cfg.OccupancyInterval,
		OccupancyWindow:   cfg.OccupancyWindow,
		RecognizeWindow:   cfg.RecognizeWindow,
		QRTimeout:         cfg.QRTimeout,
		HistoryCapacity:   cfg.HistoryCapacity,
	}, logger)
	rt.Init()

	logger.Info("classroom is running",
		"environment_log", cfg.EnvironmentLogPath(),
		"signin_log", cfg.SignInLogPath(),
		"monitor_interval", cfg.MonitorInterval,
		"occupancy_interval", cfg.OccupancyInterval,
	)

	if cfg.Headless {
		runHeadless(ctx, rt, logger)
	} else if err := runDashboard(ctx, rt); err != nil {
		drain(loop, stopLoop, drainTimeout)
		return err
	}

	// === Graceful shutdown ===
	if err := drain(loop, stopLoop, drainTimeout); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	cancel()

	logger.Info("shutdown complete")
	return nil
}

// signInLoader restores the sign-in list from the SQLite mirror when one is
// configured, otherwise from the CSV log
func signInLoader(csvStore *records.CSVStore, sqliteStore *records.SQLiteStore) records.SignInLoader {
	if sqliteStore != nil {
		return sqliteStore
	}
	return csvStore
}

// drainTimeout bounds how long shutdown waits for queued loop tasks
const drainTimeout = 2 * time.Second

// headlessRuntime is the part of the runtime headless mode drives
type headlessRuntime interface {
	StartMonitoring()
	StartOccupancy()
	Events() <-chan services.Event
	Shutdown()
}

// runHeadless starts both loops and logs events until ctx is cancelled,
// then queues the service shutdown.
func runHeadless(ctx context.Context, rt headlessRuntime, logger *slog.Logger) {
	rt.StartMonitoring()
	rt.StartOccupancy()
	logEvents(ctx, rt.Events(), logger)
	rt.Shutdown()
}

// drain waits until every task queued before the call has run, then stops
// the loop and waits for it to exit.
func drain(loop *eventloop.Loop, stopLoop context.CancelFunc, timeout time.Duration) error {
	defer func() {
		stopLoop()
		<-loop.Done()
	}()

	drained := make(chan struct{})
	loop.Post(func() { close(drained) })
	select {
	case <-drained:
		return nil
	case <-loop.Done():
		return errors.New("event loop stopped before draining")
	case <-time.After(timeout):
		return errors.New("event loop did not drain in time")
	}
}

// loadConfig reads the environment, then applies flags. When --env-file is
// given the environment is reread from it before flags apply again.
func loadConfig(args []string) (*config.Config, error) {
	var envFile string
	parse := func(cfg *config.Config) error {
		flagSet := pflag.NewFlagSet("classroom", pflag.ContinueOnError)
		flagSet.StringVar(&envFile, "env-file", envFile, "dotenv file to load before reading the environment")
		cfg.BindFlags(flagSet)
		return flagSet.Parse(args)
	}

	cfg := config.Load("")
	if err := parse(cfg); err != nil {
		return nil, err
	}
	if envFile == "" {
		return cfg, nil
	}

	cfg = config.Load(envFile)
	if err := parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCamera(cfg *config.Config, client *mqtt.Client, logger *slog.Logger) (camera.Source, error) {
	assets := camera.AssetsIn(cfg.FaceDataDir)

	switch cfg.CameraMode {
	case config.CameraModeSimulated:
		return camera.NewSimulator(assets, cfg.ConfidenceThreshold, nil, logger), nil

	case config.CameraModeMQTT:
		if client == nil {
			logger.Warn("camera disabled, no MQTT connection")
			return camera.Disabled{}, nil
		}
		subscriber := mqtt.NewSubscriber(client, mqtt.SubscriberConfig{
			Room:                   cfg.Room,
			RecognizeResponseTopic: cfg.MQTTTopicRecognizeResponse,
			QRResponseTopic:        cfg.MQTTTopicQRResponse,
		}, logger)
		if err := subscriber.SubscribeAll(); err != nil {
			return nil, err
		}
		return mqtt.NewCameraBridge(client, subscriber, mqtt.CameraBridgeConfig{
			Room:                  cfg.Room,
			RecognizeRequestTopic: cfg.MQTTTopicRecognizeRequest,
			QRRequestTopic:        cfg.MQTTTopicQRRequest,
			Assets:                assets,
			ConfidenceThreshold:   cfg.ConfidenceThreshold,
			ResponseGrace:         cfg.CameraResponseGrace,
		}, logger), nil

	case config.CameraModeNone:
		return camera.Disabled{}, nil

	default:
		return nil, fmt.Errorf("unknown camera mode %q (valid: simulated, mqtt, none)", cfg.CameraMode)
	}
}

func runDashboard(ctx context.Context, rt *services.Runtime) error {
	program := tea.NewProgram(
		tui.NewModel(rt, rt.Events(), rt.Room(), rt.Profile()),
		tea.WithAltScreen(),
	)

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	rt.Shutdown()
	return nil
}

// logEvents writes runtime events to the log until ctx is cancelled
func logEvents(ctx context.Context, events <-chan services.Event, logger *slog.Logger) {
	logger = logger.With("component", "headless")

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received, stopping services")
			return

		case event := <-events:
			switch ev := event.(type) {
			case services.EnvironmentEvent:
				logger.Info("environment",
					"temperature", ev.Record.Temperature,
					"light", ev.Record.Light,
					"occupancy", ev.Record.Occupancy,
					"climate", ev.Record.Controls.Climate,
					"lighting", ev.Record.Controls.Light,
				)
			case services.OccupancyEvent:
				logger.Info(ev.Summary, "occupancy", ev.Count)
			case services.SignInEvent:
				logger.Info("sign-in list updated", "records", len(ev.Records))
			case services.NoticeEvent:
				logger.Log(ctx, noticeLevel(ev.Level), ev.Message)
			case services.StatusEvent:
				logger.Debug("status",
					"monitoring", ev.Monitoring,
					"polling", ev.Polling,
					"recognizing", ev.Recognizing,
					"scanning", ev.Scanning,
				)
			}
		}
	}
}

func noticeLevel(level services.NoticeLevel) slog.Level {
	switch level {
	case services.NoticeError:
		return slog.LevelError
	case services.NoticeWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
