package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/ui/components"
	"go.uber.org/zap"
)

// AlarmsWindow lists the alarms with add, delete and enable controls.
// Methods run on the fyne thread.
type AlarmsWindow struct {
	ac        *AlarmClock
	window    fyne.Window
	countdown *widget.Label
	list      *components.ListManager
	alarms    []models.Alarm
}

func (ac *AlarmClock) showAlarmsWindow() {
	ac.mu.Lock()
	aw := ac.alarmsWindow
	ac.mu.Unlock()
	if aw != nil {
		aw.window.Show()
		aw.window.RequestFocus()
		return
	}

	aw = newAlarmsWindow(ac)
	ac.mu.Lock()
	ac.alarmsWindow = aw
	ac.mu.Unlock()
	aw.window.Show()
}

func newAlarmsWindow(ac *AlarmClock) *AlarmsWindow {
	aw := &AlarmsWindow{
		ac:        ac,
		window:    ac.app.NewWindow("Alarms"),
		countdown: widget.NewLabel(ac.countdown.Text()),
		alarms:    ac.controller.Alarms(),
	}

	var list *fyne.Container
	aw.list, list = components.NewListManager(alarmRows(aw.alarms), components.ListManagerConfig{
		OnAdd:    aw.showAddAlarmDialog,
		OnRemove: aw.remove,
		OnToggle: aw.toggle,
	})

	aw.window.SetContent(container.NewBorder(aw.countdown, nil, nil, nil, list))
	aw.window.Resize(fyne.NewSize(420, 360))
	aw.window.SetOnClosed(func() {
		ac.mu.Lock()
		if ac.alarmsWindow == aw {
			ac.alarmsWindow = nil
		}
		ac.mu.Unlock()
	})
	return aw
}

func (aw *AlarmsWindow) setAlarms(alarms []models.Alarm) {
	aw.alarms = alarms
	aw.list.SetRows(alarmRows(alarms))
	aw.countdown.SetText(aw.ac.countdown.Text())
}

func (aw *AlarmsWindow) toggle(i int, on bool) {
	if i >= len(aw.alarms) || aw.alarms[i].IsEnabled == on {
		return
	}
	go aw.ac.toggleAlarm(aw.alarms[i].ID)
}

func (aw *AlarmsWindow) remove(i int) {
	if i >= len(aw.alarms) {
		return
	}
	id := aw.alarms[i].ID
	go func() {
		if err := aw.ac.controller.Delete(aw.ac.runContext(), id); err != nil {
			aw.ac.log.Warn("delete alarm failed", zap.String("alarm_id", id), zap.Error(err))
			fyne.Do(func() { aw.showSaveResult(err) })
		}
	}()
}

func alarmRows(alarms []models.Alarm) []components.Row {
	rows := make([]components.Row, len(alarms))
	for i, a := range alarms {
		rows[i] = components.Row{Text: alarmLine(a), Checked: a.IsEnabled}
	}
	return rows
}
