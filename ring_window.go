package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/platform"
	"github.com/borgmon/alarm-clock/pkg/ui/components"
	"go.uber.org/zap"
)

const focusCheckInterval = 500 * time.Millisecond

// RingWindow is the full screen window shown while an alarm rings
type RingWindow struct {
	window         fyne.Window
	payload        models.Payload
	log            *zap.Logger
	onDismiss      func()
	stopMonitoring chan struct{}
}

func NewRingWindow(app fyne.App, p models.Payload, hold time.Duration, log *zap.Logger, onDismiss func()) *RingWindow {
	rw := &RingWindow{
		payload:        p,
		log:            log,
		onDismiss:      onDismiss,
		stopMonitoring: make(chan struct{}),
	}

	rw.window = app.NewWindow("Alarm")
	rw.window.SetFullScreen(true)
	rw.buildUI(hold)
	rw.window.SetOnClosed(func() {
		close(rw.stopMonitoring)
		// closing the window any other way still silences the alarm
		rw.onDismiss()
	})
	go rw.monitorFocus()

	return rw
}

func (rw *RingWindow) buildUI(hold time.Duration) {
	title := canvas.NewText(rw.payload.FireAt.Format("3:04 PM"), nil)
	title.TextSize = 64
	title.Alignment = fyne.TextAlignCenter

	body := widget.NewLabel(rw.payload.Body)
	body.Wrapping = fyne.TextWrapWord
	body.Alignment = fyne.TextAlignCenter

	dismiss := components.NewHoldButton(fmt.Sprintf("Dismiss (Hold %ds)", int(hold.Seconds())), hold, func() {
		fyne.Do(rw.window.Close)
	})

	content := container.NewVBox(
		container.NewPadded(title),
		widget.NewSeparator(),
		container.NewPadded(body),
		widget.NewSeparator(),
		container.NewCenter(dismiss),
	)
	rw.window.SetContent(container.NewPadded(container.NewCenter(content)))
}

func (rw *RingWindow) Show() {
	rw.window.Show()
	rw.window.RequestFocus()
}

// Close closes the window, which also dismisses the alarm
func (rw *RingWindow) Close() {
	rw.window.Close()
}

func (rw *RingWindow) monitorFocus() {
	ticker := time.NewTicker(focusCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rw.stopMonitoring:
			return
		case <-ticker.C:
			if platform.IsActive() {
				continue
			}
			rw.log.Debug("ring window not active, bringing to front", zap.String("alarm_id", rw.payload.AlarmID))
			platform.BringToFront()
			fyne.Do(rw.window.Show)
		}
	}
}

func (ac *AlarmClock) showRingWindow(p models.Payload) {
	fyne.Do(func() {
		ac.mu.Lock()
		prev := ac.ringWindow
		ac.ringWindow = nil
		ac.mu.Unlock()
		if prev != nil {
			// the new alarm already replaced the sound, keep it playing
			prev.onDismiss = func() {}
			prev.Close()
		}

		var rw *RingWindow
		rw = NewRingWindow(ac.app, p, ac.cfg.Ringing.Hold, ac.log, func() {
			ac.mu.Lock()
			if ac.ringWindow == rw {
				ac.ringWindow = nil
			}
			ac.mu.Unlock()
			ac.controller.Dismiss()
		})
		ac.mu.Lock()
		ac.ringWindow = rw
		ac.mu.Unlock()
		rw.Show()
	})
}

func (ac *AlarmClock) closeRingWindow() {
	fyne.Do(func() {
		ac.mu.Lock()
		rw := ac.ringWindow
		ac.ringWindow = nil
		ac.mu.Unlock()
		if rw != nil {
			rw.Close()
		}
	})
}
