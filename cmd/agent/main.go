package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cutroom/cutroom-agent/internal/api"
	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/preview"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
	"github.com/cutroom/cutroom-agent/internal/transcribe"
	"github.com/cutroom/cutroom-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

// timelinePlans adapts the live timeline and library into the render plan
// the job runner consumes.
type timelinePlans struct {
	timeline *timeline.Controller
	library  *library.Service
}

func (p timelinePlans) RenderPlan() (media.RenderPlan, error) {
	snap := p.timeline.Snapshot()
	return export.BuildRenderPlan(snap.Clips, p.library)
}

func run() error {
	startTime := time.Now()

	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data dirs: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting cutroom agent", "version", config.Version, "data_dir", cfg.DataDir)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := library.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  CUTROOM AGENT v%-10s               ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port)
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	toolCfg := media.DefaultConfig(logger)
	toolCfg.FFmpegPath = cfg.FFmpegPath
	toolCfg.FFprobePath = cfg.FFprobePath
	toolCfg.Timeout = cfg.ToolTimeout

	var toolchain media.Toolchain
	tools := api.ToolsResponse{Transcription: cfg.TranscribeAPIKey != ""}
	if cli, err := media.NewCLIToolchain(toolCfg); err != nil {
		logger.Warn("ffmpeg toolchain unavailable, media processing disabled", "error", err)
		toolchain = media.NewStubToolchain(logger)
	} else {
		toolchain = cli
		tools.FFmpeg = true
		tools.FFprobe = true
	}

	librarySvc := library.NewService(repo, toolchain, cfg.ThumbnailsDir(), logger)
	timelineCtrl := timeline.NewController(librarySvc, logger)
	librarySvc.SetClipPruner(timelineCtrl)
	dispatcher := timeline.NewDispatcher(timelineCtrl, logger)

	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:       cfg.TranscribeAPIKey,
		APIURL:       cfg.TranscribeAPIURL,
		Model:        cfg.TranscribeModel,
		NoiseDb:      cfg.SilenceNoiseDb,
		ArtifactsDir: cfg.ArtifactsDir(),
		Logger:       logger,
	}, toolchain)

	plans := timelinePlans{timeline: timelineCtrl, library: librarySvc}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := library.NewRunner(librarySvc, repo, toolchain, transcriber, plans, cfg.ArtifactsDir(), logger)
	go runner.Start(ctx)

	if err := librarySvc.RefreshPresence(ctx); err != nil {
		logger.Warn("initial presence check failed", "error", err)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port,
		Version:     config.Version,
		DeviceID:    deviceID,
		StartTime:   startTime,
		ProjectsDir: cfg.ProjectsDir(),
		Timeline:    timelineCtrl,
		Commands:    dispatcher,
		Library:     librarySvc,
		Repository:  repo,
		Runner:      runner,
		Projects:    project.NewStore(logger),
		Preview:     preview.NewServer(logger),
		Tools:       tools,
		Logger:      logger,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Library: librarySvc,
			Runner:  runner,
			Logger:  logger,
			OnImport: func() error {
				logger.Info("import requested from tray (file dialog lives in the UI process)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
