// Package ui hosts the desktop tray menu. The agent runs headless when
// the platform has no tray or the headless flag is set.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/cutforge/cutforge-agent/internal/jobs"
)

type Tray struct {
	runner *jobs.Runner
	logger *slog.Logger

	statusItem *systray.MenuItem
	activeItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	onOpenOutputs func() error
	onQuit        func()
}

type TrayConfig struct {
	Runner        *jobs.Runner
	Logger        *slog.Logger
	OnOpenOutputs func() error
	OnQuit        func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		runner:        cfg.Runner,
		logger:        cfg.Logger,
		onOpenOutputs: cfg.OnOpenOutputs,
		onQuit:        cfg.OnQuit,
	}
}

// Run blocks until the tray exits. Must be called from the main
// goroutine on platforms that require it.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutforge")
	systray.SetTooltip("Cutforge Export Agent")

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.activeItem = systray.AddMenuItem("Exports: 0 active", "Running exports")
	t.activeItem.Disable()
	t.mu.Unlock()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause the export queue")

	openOutputsItem := systray.AddMenuItem("Open Outputs...", "Open the export output folder")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutforge Export Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-openOutputsItem.ClickedCh:
				t.handleOpenOutputs()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleOpenOutputs() {
	if t.onOpenOutputs != nil {
		if err := t.onOpenOutputs(); err != nil {
			t.logger.Error("failed to open output folder", "error", err)
		}
	}
}

// UpdateStatus sets the status line unless the queue is paused; the
// paused label wins until Resume. No-op until the tray is ready.
func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusItem == nil {
		return
	}
	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateActiveCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.activeItem == nil {
		return
	}
	t.activeItem.SetTitle(fmt.Sprintf("Exports: %d active", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
