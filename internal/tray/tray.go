// Package tray provides a system tray menu for the coaching service.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu. Callbacks run on the menu goroutine.
type Tray struct {
	mu         sync.RWMutex
	enabled    bool
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()

	lastRep string
	lastSet string

	menuToggle  *systray.MenuItem
	menuLastRep *systray.MenuItem
	menuLastSet *systray.MenuItem
}

// New creates a Tray with coaching enabled.
func New() *Tray {
	return &Tray{enabled: true}
}

// OnToggle sets the callback for the enable/disable item.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback for the dashboard item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("PoseCoach")
	systray.SetTooltip("PoseCoach exercise coaching")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle coaching")
	systray.AddSeparator()
	t.menuLastRep = systray.AddMenuItem(t.lastRepTitle(), "Last repetition")
	t.menuLastRep.Disable()
	t.menuLastSet = systray.AddMenuItem(t.lastSetTitle(), "Last completed set")
	t.menuLastSet.Disable()
	toggle := t.menuToggle
	t.mu.Unlock()

	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit PoseCoach")

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.call(func() func() { return t.onSettings })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	cb := t.onToggle
	t.mu.Unlock()

	if cb != nil {
		cb(enabled)
	}
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	cb := get()
	t.mu.RUnlock()
	if cb != nil {
		cb()
	}
}

// SetLastRep shows the latest repetition.
func (t *Tray) SetLastRep(index int, score float64, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRep = fmt.Sprintf("#%d %.0f%% %s", index, score*100, message)
	if t.menuLastRep != nil {
		t.menuLastRep.SetTitle(t.lastRepTitle())
	}
}

// SetLastSet shows the latest completed set.
func (t *Tray) SetLastSet(activity string, counted, target int, percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSet = fmt.Sprintf("%s %d/%d %.0f%%", activity, counted, target, percent)
	if t.menuLastSet != nil {
		t.menuLastSet.SetTitle(t.lastSetTitle())
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func (t *Tray) lastRepTitle() string {
	if t.lastRep == "" {
		return "Last rep: none"
	}
	return "Last rep: " + t.lastRep
}

func (t *Tray) lastSetTitle() string {
	if t.lastSet == "" {
		return "Last set: none"
	}
	return "Last set: " + t.lastSet
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Coaching on"
	}
	return "○ Coaching off"
}
