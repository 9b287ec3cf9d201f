package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ListManager shows rows owned by the caller with add, remove and toggle controls.
// The caller changes its data in the callbacks and then calls SetRows.
type ListManager struct {
	list        *widget.List
	rows        []Row
	selectedIdx int

	onAdd    func()
	onRemove func(int)
	onToggle func(int, bool)
}

// Row is one line of the list
type Row struct {
	Text    string
	Checked bool
}

// ListManagerConfig configures the list manager
type ListManagerConfig struct {
	OnAdd    func()          // Called when the add button is pressed
	OnRemove func(int)       // Called with the selected row index
	OnToggle func(int, bool) // Called when a row's check box changes
}

// NewListManager creates a new list manager component
func NewListManager(rows []Row, config ListManagerConfig) (*ListManager, *fyne.Container) {
	lm := &ListManager{
		rows:        rows,
		selectedIdx: -1,
		onAdd:       config.OnAdd,
		onRemove:    config.OnRemove,
		onToggle:    config.OnToggle,
	}

	lm.list = widget.NewList(
		func() int {
			return len(lm.rows)
		},
		func() fyne.CanvasObject {
			return widget.NewCheck("template", nil)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			check := o.(*widget.Check)
			if i >= len(lm.rows) {
				return
			}
			// detach before updating so SetChecked does not call back
			check.OnChanged = nil
			check.SetText(lm.rows[i].Text)
			check.SetChecked(lm.rows[i].Checked)
			check.OnChanged = func(on bool) {
				if lm.onToggle != nil {
					lm.onToggle(i, on)
				}
			}
		})

	lm.list.OnSelected = func(id widget.ListItemID) {
		lm.selectedIdx = id
	}

	plusButton := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		if lm.onAdd != nil {
			lm.onAdd()
		}
	})
	minusButton := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), lm.RemoveSelected)

	listScroll := container.NewScroll(lm.list)
	listScroll.SetMinSize(fyne.NewSize(0, 200))

	listWithBorder := container.NewBorder(
		widget.NewSeparator(),
		widget.NewSeparator(),
		widget.NewSeparator(),
		widget.NewSeparator(),
		listScroll,
	)

	return lm, container.NewBorder(nil, container.NewHBox(plusButton, minusButton), nil, nil, listWithBorder)
}

// SetRows replaces the rows and refreshes
func (lm *ListManager) SetRows(rows []Row) {
	lm.rows = rows
	if lm.selectedIdx >= len(rows) {
		lm.list.UnselectAll()
		lm.selectedIdx = -1
	}
	lm.list.Refresh()
}

// Rows returns the rows currently shown
func (lm *ListManager) Rows() []Row {
	return lm.rows
}

// Select marks a row as selected
func (lm *ListManager) Select(i int) {
	lm.list.Select(i)
}

// RemoveSelected asks the owner to remove the selected row
func (lm *ListManager) RemoveSelected() {
	if lm.selectedIdx < 0 || lm.selectedIdx >= len(lm.rows) {
		return
	}
	idx := lm.selectedIdx
	lm.list.UnselectAll()
	lm.selectedIdx = -1
	if lm.onRemove != nil {
		lm.onRemove(idx)
	}
}
