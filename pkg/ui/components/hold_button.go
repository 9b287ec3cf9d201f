package components

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const holdTick = 50 * time.Millisecond

// HoldButton fires OnConfirmed once the user kept it pressed for the hold duration.
// Releasing or leaving the button early resets the progress.
type HoldButton struct {
	widget.BaseWidget
	Text        string
	Hold        time.Duration
	OnConfirmed func()

	mu       sync.Mutex
	holding  bool
	hovered  bool
	progress float64
	stop     chan struct{}
}

// NewHoldButton creates a new HoldButton. A zero hold confirms on press.
func NewHoldButton(text string, hold time.Duration, onConfirmed func()) *HoldButton {
	b := &HoldButton{
		Text:        text,
		Hold:        hold,
		OnConfirmed: onConfirmed,
	}
	b.ExtendBaseWidget(b)
	return b
}

// CreateRenderer implements fyne.Widget
func (b *HoldButton) CreateRenderer() fyne.WidgetRenderer {
	text := canvas.NewText(b.Text, theme.Color(theme.ColorNameForeground))
	text.Alignment = fyne.TextAlignCenter
	text.TextSize = theme.TextSize() * 1.5

	return &holdButtonRenderer{
		button:      b,
		text:        text,
		bg:          canvas.NewRectangle(theme.Color(theme.ColorNameButton)),
		progressBar: canvas.NewRectangle(theme.Color(theme.ColorNamePrimary)),
	}
}

// Progress returns how far the current hold got, from 0 to 1
func (b *HoldButton) Progress() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

func (b *HoldButton) Tapped(*fyne.PointEvent) {}

func (b *HoldButton) MouseIn(*desktop.MouseEvent) {
	b.mu.Lock()
	b.hovered = true
	b.mu.Unlock()
	b.Refresh()
}

func (b *HoldButton) MouseMoved(*desktop.MouseEvent) {}

func (b *HoldButton) MouseOut() {
	b.mu.Lock()
	b.hovered = false
	b.mu.Unlock()
	// Stop holding when mouse leaves
	b.release()
}

func (b *HoldButton) MouseDown(*desktop.MouseEvent) {
	b.mu.Lock()
	if b.holding {
		b.mu.Unlock()
		return
	}
	b.holding = true
	b.progress = 0
	stop := make(chan struct{})
	b.stop = stop
	b.mu.Unlock()

	if b.Hold <= 0 {
		b.confirm()
		return
	}
	go b.track(stop)
}

func (b *HoldButton) MouseUp(*desktop.MouseEvent) {
	b.release()
}

func (b *HoldButton) track(stop <-chan struct{}) {
	ticker := time.NewTicker(holdTick)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			progress := float64(time.Since(start)) / float64(b.Hold)
			if progress >= 1 {
				b.confirm()
				return
			}
			b.mu.Lock()
			b.progress = progress
			b.mu.Unlock()
			fyne.Do(b.Refresh)
		}
	}
}

func (b *HoldButton) confirm() {
	b.mu.Lock()
	if !b.holding {
		b.mu.Unlock()
		return
	}
	b.holding = false
	b.progress = 1
	b.stop = nil
	b.mu.Unlock()

	fyne.Do(b.Refresh)
	if b.OnConfirmed != nil {
		b.OnConfirmed()
	}
}

func (b *HoldButton) release() {
	b.mu.Lock()
	if b.holding {
		b.holding = false
		close(b.stop)
		b.stop = nil
	}
	b.progress = 0
	b.mu.Unlock()
	b.Refresh()
}

type holdButtonRenderer struct {
	button      *HoldButton
	text        *canvas.Text
	bg          *canvas.Rectangle
	progressBar *canvas.Rectangle
}

func (r *holdButtonRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.text.Resize(size)

	// Progress bar fills from left to right
	r.progressBar.Resize(fyne.NewSize(size.Width*float32(r.button.Progress()), size.Height))
	r.progressBar.Move(fyne.NewPos(0, 0))
}

func (r *holdButtonRenderer) MinSize() fyne.Size {
	textSize := r.text.MinSize()
	return fyne.NewSize(
		fyne.Max(textSize.Width+theme.Padding()*4, 300),
		fyne.Max(textSize.Height+theme.Padding()*2, 80),
	)
}

func (r *holdButtonRenderer) Refresh() {
	r.button.mu.Lock()
	hovered := r.button.hovered
	r.button.mu.Unlock()

	r.text.Text = r.button.Text
	r.text.Color = theme.Color(theme.ColorNameForeground)
	if hovered {
		r.bg.FillColor = theme.Color(theme.ColorNameHover)
	} else {
		r.bg.FillColor = theme.Color(theme.ColorNameButton)
	}
	r.Layout(r.bg.Size())

	r.bg.Refresh()
	r.progressBar.Refresh()
	r.text.Refresh()
}

func (r *holdButtonRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.progressBar, r.text}
}

func (r *holdButtonRenderer) Destroy() {}

func (r *holdButtonRenderer) BackgroundColor() color.Color {
	return theme.Color(theme.ColorNameButton)
}
