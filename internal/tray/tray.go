// Package tray provides a system tray menu for a running holoroom preview.
package tray

import (
	"strconv"
	"sync"

	"github.com/ayusman/holoroom/internal/app"
	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onPause func(paused bool)
	onMode  func(mode app.Mode)
	onOpen  func()
	onQuit  func()
	state   func() (app.Mode, bool)
	paused  bool
	mode    app.Mode
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuPause   *systray.MenuItem
	menuOverlay *systray.MenuItem
	menuRoom    *systray.MenuItem
	menuStatus  *systray.MenuItem
}

// New creates a new Tray showing mode, with detection running.
func New(mode app.Mode) *Tray {
	return &Tray{mode: mode}
}

// OnPause sets the callback called when detection is paused or resumed.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnMode sets the callback called when a render mode is picked.
func (t *Tray) OnMode(fn func(mode app.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnState sets where the current mode and pause state are read from. It is
// consulted before every click and on Sync.
func (t *Tray) OnState(fn func() (mode app.Mode, paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = fn
}

// OnOpen sets the callback called when the preview menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("holoroom")
	systray.SetTooltip("holoroom landmark preview")

	t.mu.Lock()
	t.refreshLocked()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume landmark detection")
	systray.AddSeparator()

	t.menuOverlay = systray.AddMenuItemCheckbox("Overlay", "Draw skeletons on the camera picture", t.mode == app.ModeOverlay)
	t.menuRoom = systray.AddMenuItemCheckbox("Room", "Draw skeletons in the virtual room", t.mode == app.ModeRoom)
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Frames: 0", "Frames processed")
	t.menuStatus.Disable()
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit holoroom")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-t.menuOverlay.ClickedCh:
				t.handleMode(app.ModeOverlay)
			case <-t.menuRoom.ClickedCh:
				t.handleMode(app.ModeRoom)
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func pauseTitle(paused bool) string {
	if paused {
		return "○ Paused"
	}
	return "● Detecting"
}

// Sync reloads mode and pause state and refreshes the menu.
func (t *Tray) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshLocked()
	t.updateMenuLocked()
}

func (t *Tray) refreshLocked() {
	if t.state != nil {
		t.mode, t.paused = t.state()
	}
}

func (t *Tray) updateMenuLocked() {
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(t.paused))
	}
	if t.menuOverlay != nil && t.menuRoom != nil {
		if t.mode == app.ModeOverlay {
			t.menuOverlay.Check()
			t.menuRoom.Uncheck()
		} else {
			t.menuRoom.Check()
			t.menuOverlay.Uncheck()
		}
	}
}

// handlePause flips the pause state.
func (t *Tray) handlePause() {
	t.mu.Lock()
	t.refreshLocked()
	t.paused = !t.paused
	paused := t.paused
	t.updateMenuLocked()

	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// handleMode selects mode and updates the check marks.
func (t *Tray) handleMode(mode app.Mode) {
	t.mu.Lock()
	t.refreshLocked()
	changed := t.mode != mode
	t.mode = mode
	t.updateMenuLocked()

	callback := t.onMode
	t.mu.Unlock()

	if changed && callback != nil {
		callback(mode)
	}
}

// handleOpen handles the preview menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetFrames updates the frame counter in the menu.
func (t *Tray) SetFrames(n int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(framesTitle(n))
	}
}

func framesTitle(n int) string {
	return "Frames: " + strconv.Itoa(n)
}

// IsPaused returns the current pause state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// Mode returns the selected render mode.
func (t *Tray) Mode() app.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}
