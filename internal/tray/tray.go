// Package tray provides a system tray menu for the asana server.
package tray

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	dashboardURL string
	onQuit       func()
	lastRep      string
	sessions     int
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuSessions *systray.MenuItem
	menuLastRep  *systray.MenuItem
}

// New creates a new Tray whose dashboard item opens dashboardURL.
func New(dashboardURL string) *Tray {
	return &Tray{
		dashboardURL: dashboardURL,
	}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called and must run on the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Asana")
	systray.SetTooltip("Asana Pose Classification")

	t.mu.Lock()
	t.menuSessions = systray.AddMenuItem(sessionsTitle(t.sessions), "Open exercise sessions")
	t.menuSessions.Disable()
	t.menuLastRep = systray.AddMenuItem(lastRepTitle(t.lastRep), "Last completed repetition")
	t.menuLastRep.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Asana")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleDashboard opens the dashboard URL with the platform opener.
func (t *Tray) handleDashboard() {
	if t.dashboardURL == "" {
		return
	}
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	exec.Command(opener, t.dashboardURL).Start()
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

// SetLastRep updates the last repetition display in the menu.
func (t *Tray) SetLastRep(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastRep = text
	if t.menuLastRep != nil {
		t.menuLastRep.SetTitle(lastRepTitle(text))
	}
}

// SetSessions updates the open session count in the menu.
func (t *Tray) SetSessions(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions = n
	if t.menuSessions != nil {
		t.menuSessions.SetTitle(sessionsTitle(n))
	}
}

// LastRep returns the text shown for the last repetition.
func (t *Tray) LastRep() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lastRepTitle(t.lastRep)
}

// Sessions returns the text shown for open sessions.
func (t *Tray) Sessions() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sessionsTitle(t.sessions)
}

func lastRepTitle(text string) string {
	if text == "" {
		return "Last: none"
	}
	return "Last: " + text
}

func sessionsTitle(n int) string {
	if n == 1 {
		return "1 session"
	}
	return fmt.Sprintf("%d sessions", n)
}
