package main

import (
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/borgmon/alarm-clock/pkg/calendar"
	"github.com/borgmon/alarm-clock/pkg/models"
	"go.uber.org/zap"
)

// maxTrayAlarms limits how many alarms are listed directly in the tray menu
const maxTrayAlarms = 8

// trayMenu is the system tray menu. Methods must run on the fyne thread.
type trayMenu struct {
	ac     *AlarmClock
	desk   desktop.App
	menu   *fyne.Menu
	header *fyne.MenuItem
	alarms []models.Alarm
}

func (ac *AlarmClock) setupSystemTray() {
	desk, ok := ac.app.(desktop.App)
	if !ok {
		ac.log.Warn("system tray not supported on this platform")
		return
	}

	t := &trayMenu{
		ac:     ac,
		desk:   desk,
		header: fyne.NewMenuItem(ac.countdown.Text(), nil),
		alarms: ac.controller.Alarms(),
	}
	t.header.Disabled = true
	desk.SetSystemTrayIcon(theme.HistoryIcon())
	t.rebuild()

	ac.mu.Lock()
	ac.tray = t
	ac.mu.Unlock()
}

func (ac *AlarmClock) refreshTray() {
	ac.mu.Lock()
	t := ac.tray
	ac.mu.Unlock()
	if t != nil {
		fyne.Do(t.rebuild)
	}
}

func (t *trayMenu) setHeader(text string) {
	if t.header.Label == text {
		return
	}
	t.header.Label = text
	t.menu.Refresh()
	t.desk.SetSystemTrayMenu(t.menu)
}

func (t *trayMenu) setAlarms(alarms []models.Alarm) {
	t.alarms = alarms
	t.rebuild()
}

func (t *trayMenu) rebuild() {
	ac := t.ac
	items := []*fyne.MenuItem{t.header}

	ac.mu.Lock()
	notice := ac.notice
	ac.mu.Unlock()
	if notice != "" {
		noticeItem := fyne.NewMenuItem(notice, nil)
		noticeItem.Disabled = true
		items = append(items, noticeItem)
	}

	if len(t.alarms) > 0 {
		items = append(items, fyne.NewMenuItemSeparator())
		for i, a := range t.alarms {
			if i == maxTrayAlarms {
				more := fyne.NewMenuItem(fmt.Sprintf("%d more…", len(t.alarms)-maxTrayAlarms), ac.showAlarmsWindow)
				items = append(items, more)
				break
			}
			id := a.ID
			item := fyne.NewMenuItem(alarmLine(a), func() {
				go ac.toggleAlarm(id)
			})
			item.Checked = a.IsEnabled
			items = append(items, item)
		}
	}

	items = append(items,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Manage Alarms…", ac.showAlarmsWindow),
		fyne.NewMenuItem("Check Missed Alarms", func() {
			go ac.resume(ac.runContext())
		}),
		fyne.NewMenuItem("Export Alarms", func() {
			go ac.exportAlarms()
		}),
		fyne.NewMenuItem("Import Alarms", func() {
			go ac.importAlarms()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", ac.quit),
	)

	t.menu = fyne.NewMenu("Alarm Clock", items...)
	t.desk.SetSystemTrayMenu(t.menu)
}

func (ac *AlarmClock) toggleAlarm(id string) {
	if _, err := ac.controller.Toggle(ac.runContext(), id); err != nil {
		ac.log.Warn("toggle alarm failed", zap.String("alarm_id", id), zap.Error(err))
		ac.reportPermission(err)
	}
}

func (ac *AlarmClock) exportAlarms() {
	path := ac.cfg.Export.Path
	f, err := os.Create(path)
	if err != nil {
		ac.log.Error("create export file failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	alarms := ac.controller.Alarms()
	if err := calendar.Export(f, alarms, time.Now()); err != nil {
		ac.log.Error("export alarms failed", zap.Error(err))
		return
	}
	ac.log.Info("alarms exported", zap.String("path", path), zap.Int("count", len(alarms)))
	ac.app.SendNotification(fyne.NewNotification("Alarms exported", path))
}

func (ac *AlarmClock) importAlarms() {
	path := ac.cfg.Export.Path
	f, err := os.Open(path)
	if err != nil {
		ac.log.Error("open import file failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	alarms, err := calendar.Import(f)
	if err != nil {
		ac.log.Error("parse import file failed", zap.String("path", path), zap.Error(err))
		return
	}
	n, err := ac.controller.Import(ac.runContext(), alarms)
	if err != nil {
		ac.log.Warn("import finished with errors", zap.Error(err))
		ac.reportPermission(err)
	}
	ac.app.SendNotification(fyne.NewNotification("Alarms imported", fmt.Sprintf("%d alarms from %s", n, path)))
}

func alarmLine(a models.Alarm) string {
	if a.Info == "" {
		return a.Time
	}
	return a.Time + "  ·  " + a.Info
}
