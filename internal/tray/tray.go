// Package tray provides the system tray toggle for gesture mode.
package tray

import (
	"context"
	"sync"

	"github.com/cyclopcam/logs"
	"github.com/getlantern/systray"

	"github.com/talkheal/gesturemode/internal/app"
)

// Controller starts and stops gesture mode.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Status() app.Status
}

// Tray shows the gesture mode state and the last reported gesture, and
// toggles gesture mode on click. It implements app.Reporter.
type Tray struct {
	log        logs.Log
	controller Controller
	onSettings func()
	onQuit     func()

	mu          sync.RWMutex
	active      bool
	lastGesture string
	warning     string

	// refresh is signalled when the menu titles need updating.
	refresh chan struct{}

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

func New(log logs.Log, controller Controller) *Tray {
	st := controller.Status()
	return &Tray{
		log:        log,
		controller: controller,
		active:     st.Active,
		refresh:    make(chan struct{}, 1),
	}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
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

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Gesture")
	systray.SetTooltip("Gesture mode")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(t.toggleTitleLocked(), "Start or stop gesture mode")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(t.gestureTitleLocked(), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit gesture mode")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.refresh:
				t.updateMenu()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
}

// GestureChanged records the latest gesture. It does not touch the menu
// directly since it runs inside the capture loop.
func (t *Tray) GestureChanged(ev app.Event) {
	t.mu.Lock()
	t.lastGesture = ev.Gesture
	t.mu.Unlock()
	t.signal()
}

func (t *Tray) StateChanged(st app.Status) {
	t.mu.Lock()
	t.active = st.Active
	t.warning = st.Error
	if !st.Active {
		t.lastGesture = ""
	}
	t.mu.Unlock()
	t.signal()
}

func (t *Tray) signal() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

// handleToggle starts gesture mode when idle and stops it when active.
func (t *Tray) handleToggle() {
	if t.controller.Status().Active {
		if err := t.controller.Stop(); err != nil {
			t.log.Warnf("Failed to stop gesture mode: %v", err)
		}
	} else if err := t.controller.Start(context.Background()); err != nil {
		t.log.Warnf("Failed to start gesture mode: %v", err)
	}

	st := t.controller.Status()
	t.mu.Lock()
	t.active = st.Active
	t.warning = st.Error
	t.mu.Unlock()
	t.updateMenu()
}

func (t *Tray) updateMenu() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(t.toggleTitleLocked())
	}
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(t.gestureTitleLocked())
	}
}

func (t *Tray) toggleTitleLocked() string {
	switch {
	case t.active:
		return "● Gesture mode on"
	case t.warning != "":
		return "○ Gesture mode off (" + t.warning + ")"
	default:
		return "○ Gesture mode off"
	}
}

func (t *Tray) gestureTitleLocked() string {
	if t.lastGesture == "" {
		return "Last: none"
	}
	return "Last: " + t.lastGesture
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// IsActive reports whether gesture mode was last seen active.
func (t *Tray) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// LastGesture returns the text shown in the last-gesture menu item.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gestureTitleLocked()
}
