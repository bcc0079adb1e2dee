// Package ui renders the system tray presence of the agent: status, asset
// count, job pause toggle and quit. The editor window itself runs in a
// separate process and talks to the agent over the HTTP bridge.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/cutroom/cutroom-agent/internal/library"
)

type Tray struct {
	library *library.Service
	runner  *library.Runner
	logger  *slog.Logger

	statusItem *systray.MenuItem
	assetsItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	onImport func() error
	onQuit   func()
}

type TrayConfig struct {
	Library  *library.Service
	Runner   *library.Runner
	Logger   *slog.Logger
	OnImport func() error
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		library:  cfg.Library,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		onImport: cfg.OnImport,
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutroom")
	systray.SetTooltip("Cutroom Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.assetsItem = systray.AddMenuItem("Assets: 0", "Imported media files")
	t.assetsItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Jobs", "Pause background processing")

	importItem := systray.AddMenuItem("Import Media...", "Import media files into the library")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutroom Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-importItem.ClickedCh:
				t.handleImport()
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
		t.pauseItem.SetTitle("Pause Jobs")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Jobs")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleImport() {
	if t.onImport != nil {
		if err := t.onImport(); err != nil {
			t.logger.Error("failed to import media", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateAssetCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assetsItem.SetTitle(fmt.Sprintf("Assets: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
