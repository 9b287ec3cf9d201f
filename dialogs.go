package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/alarm-clock/pkg/controller"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/notify"
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (aw *AlarmsWindow) showAddAlarmDialog() {
	now := time.Now()
	start := models.TimeOfDayFrom(now.Add(time.Minute))

	hours := make([]string, 12)
	for i := range hours {
		hours[i] = strconv.Itoa(i + 1)
	}
	hourSelect := widget.NewSelect(hours, nil)
	hourSelect.SetSelected(strconv.Itoa(start.Hour))

	minEntry := widget.NewEntry()
	minEntry.SetText(fmt.Sprintf("%02d", start.Minute))

	period := widget.NewRadioGroup([]string{string(models.AM), string(models.PM)}, nil)
	period.Horizontal = true
	period.SetSelected(string(start.Period))

	days := widget.NewCheckGroup(weekdayNames, nil)
	days.Horizontal = true

	items := []*widget.FormItem{
		widget.NewFormItem("Hour", hourSelect),
		widget.NewFormItem("Minute", minEntry),
		widget.NewFormItem("", period),
		widget.NewFormItem("Repeat", days),
	}

	dialog.ShowForm("Add Alarm", "Save", "Cancel", items, func(confirmed bool) {
		if !confirmed {
			return
		}

		hour, _ := strconv.Atoi(hourSelect.Selected)
		minute, err := strconv.Atoi(minEntry.Text)
		if err != nil {
			dialog.ShowError(fmt.Errorf("%w: minute must be a number", models.ErrInvalidTimeFormat), aw.window)
			return
		}
		draft := controller.Draft{
			Time: models.TimeOfDay{
				Hour:   hour,
				Minute: minute,
				Period: models.Period(period.Selected),
			},
			SelectedDays: selectedDays(days.Selected),
		}

		go func() {
			_, err := aw.ac.controller.Save(aw.ac.runContext(), draft)
			fyne.Do(func() { aw.showSaveResult(err) })
		}()
	}, aw.window)
}

func (aw *AlarmsWindow) showSaveResult(err error) {
	switch {
	case err == nil:
	case errors.Is(err, notify.ErrPermissionDenied):
		aw.ac.reportPermission(err)
		dialog.ShowInformation("Notifications Off",
			"The alarm was saved but cannot fire until notifications are allowed.", aw.window)
	default:
		dialog.ShowError(err, aw.window)
	}
}

func selectedDays(names []string) models.Weekdays {
	var w models.Weekdays
	for _, name := range names {
		for i, day := range weekdayNames {
			if day == name {
				w[i] = true
			}
		}
	}
	return w
}
