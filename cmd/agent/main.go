package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/cutforge/cutforge-agent/internal/api"
	"github.com/cutforge/cutforge-agent/internal/config"
	"github.com/cutforge/cutforge-agent/internal/db"
	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/ffmpeg"
	"github.com/cutforge/cutforge-agent/internal/jobs"
	"github.com/cutforge/cutforge-agent/internal/logging"
	"github.com/cutforge/cutforge-agent/internal/metrics"
	"github.com/cutforge/cutforge-agent/internal/notify"
	"github.com/cutforge/cutforge-agent/internal/outputs"
	"github.com/cutforge/cutforge-agent/internal/toolcheck"
	"github.com/cutforge/cutforge-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	config.LoadEnvFile()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.ScratchDir(), cfg.OutputDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another agent is already running (lock held: %s)", cfg.LockPath())
	}
	defer lock.Unlock()

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cutforge agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := jobs.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	apiToken, err := ensureAPIToken(repo, cfg.TokenPath())
	if err != nil {
		return fmt.Errorf("failed to ensure API token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   CUTFORGE EXPORT AGENT                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  API Token:  %-45s ║\n", apiToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	sessions := export.NewSessionManager()
	service := jobs.NewService(repo, sessions, logger)
	m := metrics.New()
	hub := api.NewHub(logging.WithComponent(logger, "events"))
	notifier := notify.NewNotifier(cfg.WebhookURL(), 10*time.Second, logging.WithComponent(logger, "notify"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		checker *toolcheck.Checker
		runner  *jobs.Runner
	)

	tool, err := ffmpeg.NewRunner(ffmpeg.Config{
		BinaryPath:    cfg.FFmpegPath(),
		ProbeTimeout:  cfg.ProbeTimeout(),
		TrimTimeout:   cfg.TrimTimeout(),
		EncodeTimeout: cfg.EncodeTimeout(),
		Logger:        logging.WithComponent(logger, "ffmpeg"),
	})
	if err != nil {
		logger.Warn("ffmpeg unavailable, export queue disabled", "error", err)
	} else {
		checker = toolcheck.NewChecker(tool, logging.WithComponent(logger, "toolcheck"))

		probeCtx, probeCancel := context.WithTimeout(ctx, cfg.ProbeTimeout())
		defer probeCancel()
		if caps, err := checker.Refresh(probeCtx); err != nil {
			logger.Warn("initial ffmpeg probe failed", "error", err)
		} else {
			logger.Info("ffmpeg detected", "binary", caps.Path, "version", caps.Version)
		}

		executor := export.NewExecutor(tool, cfg.ScratchDir(), logging.WithComponent(logger, "export"))
		runner = jobs.NewRunner(repo, executor, sessions, notifier, m, hub.Broadcast, logging.WithComponent(logger, "runner"))
		runner.SetPollInterval(cfg.PollInterval())
		go runner.Start(ctx)
	}

	janitor := export.NewJanitor(cfg.ScratchDir(), cfg.ScratchTTL(), logging.WithComponent(logger, "janitor"))
	go janitor.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Service:        service,
		Repository:     repo,
		Runner:         runner,
		Sessions:       sessions,
		Checker:        checker,
		Outputs:        outputs.NewServer(logging.WithComponent(logger, "outputs")),
		Hub:            hub,
		Metrics:        m,
		MetricsHandler: m.Handler(func() { m.SetActiveExports(sessions.Active()) }),
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
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

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runner: runner,
			Logger: logger,
			OnOpenOutputs: func() error {
				return openFolder(cfg.OutputDir())
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
		go refreshTray(ctx, tray, sessions)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	hub.Close()

	logger.Info("shutdown complete")
	return nil
}

// refreshTray keeps the tray's status and active-export lines current.
func refreshTray(ctx context.Context, tray *ui.Tray, sessions *export.SessionManager) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active := sessions.Active()
			tray.UpdateActiveCount(active)
			if active > 0 {
				tray.UpdateStatus("Exporting")
			} else {
				tray.UpdateStatus("Idle")
			}
		}
	}
}

func openFolder(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("explorer", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}

func ensureDeviceID(repo jobs.Repository) (string, error) {
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

// ensureAPIToken loads or generates the bearer token and mirrors it into
// a 0600 file so the CLI can authenticate without asking the user.
func ensureAPIToken(repo jobs.Repository, tokenPath string) (string, error) {
	ctx := context.Background()

	token, err := repo.GetConfig(ctx, "api_token")
	if err != nil {
		return "", err
	}

	if token == "" {
		tokenBytes := make([]byte, 32)
		if _, err := rand.Read(tokenBytes); err != nil {
			return "", err
		}
		token = hex.EncodeToString(tokenBytes)

		if err := repo.SetConfig(ctx, "api_token", token); err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		return "", fmt.Errorf("failed to write token file: %w", err)
	}

	return token, nil
}
