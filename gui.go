//go:build gui

package main

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/atotto/clipboard"

	"github.com/metcalfc/simplyread/internal/engine"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/state"
	"github.com/metcalfc/simplyread/internal/view"
)

// The window has its own surface, so logs stay on stderr.
const uiOwnsTerminal = false

var (
	textColor   = color.White
	markedColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	termColor   = color.RGBA{R: 255, G: 170, B: 0, A: 255}
	cursorColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	selectColor = color.RGBA{R: 68, G: 68, B: 136, A: 255}
	clearColor  = color.Transparent
)

var monospace = fyne.TextStyle{Monospace: true}

type gui struct {
	s        *session
	eng      *engine.Engine
	w        fyne.Window
	layout   *view.Layout
	pointer  *view.Pointer
	fontSize float32

	cursor   int
	mark     int
	hoverTok int

	tokens     []*tokenWidget
	background *pageBackground
	page       *fyne.Container
	scroll     *container.Scroll
	panels     *fyne.Container
	status     *widget.Label
	split      *container.Split
}

// tokenWidget is one word on the page. Pointer input goes through the shared
// view.Pointer so clicks, double-clicks and drags match the terminal UI.
type tokenWidget struct {
	widget.BaseWidget
	ui   *gui
	idx  int
	bg   *canvas.Rectangle
	text *canvas.Text
}

func newTokenWidget(ui *gui, idx int) *tokenWidget {
	t := &tokenWidget{
		ui:   ui,
		idx:  idx,
		bg:   canvas.NewRectangle(clearColor),
		text: canvas.NewText("", textColor),
	}
	t.text.TextStyle = monospace
	t.ExtendBaseWidget(t)
	return t
}

func (t *tokenWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(t.bg, t.text))
}

func (t *tokenWidget) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonPrimary {
		t.ui.press(t.idx)
	}
}

func (t *tokenWidget) MouseUp(*desktop.MouseEvent)    { t.ui.release() }
func (t *tokenWidget) MouseIn(*desktop.MouseEvent)    { t.ui.enter(t.idx) }
func (t *tokenWidget) MouseMoved(*desktop.MouseEvent) {}
func (t *tokenWidget) MouseOut()                      { t.ui.leave(t.idx) }

// pageBackground takes clicks that land between words.
type pageBackground struct {
	widget.BaseWidget
	ui *gui
}

func newPageBackground(ui *gui) *pageBackground {
	b := &pageBackground{ui: ui}
	b.ExtendBaseWidget(b)
	return b
}

func (b *pageBackground) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(canvas.NewRectangle(clearColor))
}

func (b *pageBackground) Tapped(*fyne.PointEvent) {
	b.ui.s.publish(events.Click{Target: b.ui.eng.Document().Body()})
	b.ui.refresh()
}

// pageLayout places tokens on a monospace grid taken from view.Layout.
type pageLayout struct {
	ui *gui
}

func (l *pageLayout) cell() fyne.Size {
	return fyne.MeasureText("M", l.ui.fontSize, monospace)
}

func (l *pageLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	c := l.cell()
	lay := l.ui.layout
	return fyne.NewSize(float32(lay.Width)*c.Width, float32(len(lay.Lines))*c.Height)
}

func (l *pageLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	c := l.cell()
	for _, o := range objects {
		tw, ok := o.(*tokenWidget)
		if !ok {
			o.Move(fyne.NewPos(0, 0))
			o.Resize(size)
			continue
		}
		t := l.ui.layout.Tokens[tw.idx]
		tw.Move(fyne.NewPos(float32(t.Col)*c.Width, float32(t.Line)*c.Height))
		tw.Resize(fyne.NewSize(float32(t.Width)*c.Width, c.Height))
	}
}

func (u *gui) press(idx int) {
	u.pointer.Press(idx)
	u.cursor = idx
	u.refresh()
}

func (u *gui) release() {
	for _, ev := range u.pointer.Release(u.hoverTok, time.Now()) {
		u.s.publish(ev)
	}
	u.refresh()
}

func (u *gui) enter(idx int) {
	u.hoverTok = idx
	if u.mouseDown() {
		u.pointer.Drag(idx)
		u.cursor = idx
	} else {
		u.hover(idx)
	}
	u.refresh()
}

func (u *gui) leave(idx int) {
	if u.hoverTok == idx {
		u.hoverTok = -1
		u.hover(-1)
		u.refresh()
	}
}

func (u *gui) mouseDown() bool {
	_, _, ok := u.pointer.Span()
	return ok
}

func (u *gui) hover(idx int) {
	for _, ev := range u.pointer.Move(idx) {
		u.s.publish(ev)
	}
}

// columns is how many monospace cells fit across the page.
func (u *gui) columns() int {
	width := u.scroll.Size().Width
	if width <= 0 {
		width = 800
	}
	c := fyne.MeasureText("M", u.fontSize, monospace)
	return max(int(width/c.Width)-1, 20)
}

func (u *gui) openChapter(i int) {
	if u.eng != nil {
		u.s.save(u.cursor)
	}
	u.eng = u.s.open(i)
	u.layout = view.Build(u.eng.Document(), u.columns())
	u.pointer = view.NewPointer(u.eng.Document(), u.layout, u.s.cfg.UI.DoubleClick())
	u.cursor, u.mark, u.hoverTok = 0, -1, -1
	u.tokens = nil
	u.scroll.Offset = fyne.NewPos(0, 0)
	u.w.SetTitle("SimplyRead - " + u.s.book.Chapters[i].Title)
}

// refresh re-lays the live document out and redraws words, overlays and the
// status line. Token widgets are reused while the word count is unchanged so
// hover state survives substitutions.
func (u *gui) refresh() {
	u.layout = view.Build(u.eng.Document(), u.columns())
	u.pointer.Relayout(u.layout)
	n := len(u.layout.Tokens)
	if u.cursor >= n {
		u.cursor = max(n-1, 0)
	}

	if len(u.tokens) != n {
		u.tokens = make([]*tokenWidget, n)
		objects := []fyne.CanvasObject{u.background}
		for i := range u.tokens {
			u.tokens[i] = newTokenWidget(u, i)
			objects = append(objects, u.tokens[i])
		}
		u.page.Objects = objects
	}

	a, b, hasSel := u.selection()
	for i, tw := range u.tokens {
		t := u.layout.Tokens[i]
		tw.text.Text = t.Text
		tw.text.TextSize = u.fontSize
		switch {
		case t.Marked != nil:
			tw.text.Color = markedColor
			tw.text.TextStyle.Bold = true
		case t.Term != nil:
			tw.text.Color = termColor
			tw.text.TextStyle.Bold = false
		default:
			tw.text.Color = textColor
			tw.text.TextStyle.Bold = false
		}
		switch {
		case i == u.cursor:
			tw.bg.FillColor = cursorColor
		case hasSel && i >= a && i <= b:
			tw.bg.FillColor = selectColor
		default:
			tw.bg.FillColor = clearColor
		}
		tw.Refresh()
	}
	u.page.Refresh()

	u.renderPanels()
	u.status.SetText(u.statusText())
}

func (u *gui) selection() (a, b int, ok bool) {
	if a, b, ok := u.pointer.Span(); ok && u.pointer.Dragging() {
		return a, b, true
	}
	if u.mark >= 0 {
		a, b = u.mark, u.cursor
		if a > b {
			a, b = b, a
		}
		return a, b, true
	}
	return -1, -1, false
}

func (u *gui) renderPanels() {
	var objects []fyne.CanvasObject
	for _, p := range view.Panels(u.eng.Document()) {
		label := ""
		switch p.Kind {
		case prompt.Kind:
			label = "Simplify: "
		case engine.TooltipKind:
			label = "Definition: "
		case engine.BannerKind:
			label = "Bias check: "
		case engine.SpeakKind:
			label = "Selection: "
		}
		if p.Text != "" {
			l := widget.NewLabel(label + p.Text)
			l.Wrapping = fyne.TextWrapWord
			if p.Kind == engine.BannerKind {
				l.Importance = widget.DangerImportance
				if p.Tone == engine.BannerAffirmative {
					l.Importance = widget.SuccessImportance
				}
			}
			objects = append(objects, l)
		}
		if len(p.Buttons) == 0 {
			continue
		}
		row := container.NewHBox()
		for _, b := range p.Buttons {
			node := b.Node
			row.Add(widget.NewButton(b.Label, func() {
				u.s.publish(events.Click{Target: node})
				u.refresh()
			}))
		}
		objects = append(objects, row)
	}
	u.panels.Objects = objects
	u.panels.Refresh()
}

func (u *gui) statusText() string {
	ch := u.s.book.Chapters[u.s.chapter]
	text := fmt.Sprintf("%s | %d/%d | word %d/%d | %d simplified | Font: %.0f",
		ch.Title, u.s.chapter+1, len(u.s.book.Chapters),
		min(u.cursor+1, len(u.layout.Tokens)), len(u.layout.Tokens),
		u.eng.Registry().Len(), u.fontSize)
	if u.cursor < len(u.layout.Tokens) && u.eng.Simplify.Pending(u.layout.Tokens[u.cursor].Text) {
		text += " [FETCHING]"
	}
	return text
}

func (u *gui) moveTo(i int) {
	if i < 0 || i >= len(u.layout.Tokens) {
		return
	}
	u.cursor = i
	u.hover(i)
	c := fyne.MeasureText("M", u.fontSize, monospace)
	y := float32(u.layout.LineOf(i)) * c.Height
	if y < u.scroll.Offset.Y || y+c.Height > u.scroll.Offset.Y+u.scroll.Size().Height {
		u.scroll.Offset = fyne.NewPos(0, max(y-u.scroll.Size().Height/2, 0))
		u.scroll.Refresh()
	}
}

func (u *gui) moveLines(delta int) {
	if u.cursor >= len(u.layout.Tokens) {
		return
	}
	t := u.layout.Tokens[u.cursor]
	for line := t.Line + delta; line >= 0 && line < len(u.layout.Lines); line += delta {
		if i := u.layout.Nearest(line, t.Col); i >= 0 {
			u.moveTo(i)
			return
		}
	}
}

// runUI opens the reader window and blocks until it is closed.
func runUI(s *session, pos state.Position) error {
	a := app.New()
	w := a.NewWindow("SimplyRead")

	u := &gui{s: s, w: w, fontSize: 18, mark: -1, hoverTok: -1}
	s.start(events.DispatcherFunc(func(fn func()) {
		fyne.Do(func() {
			fn()
			u.refresh()
		})
	}))

	u.background = newPageBackground(u)
	u.page = container.New(&pageLayout{ui: u})
	u.scroll = container.NewVScroll(u.page)
	u.panels = container.NewVBox()
	u.status = widget.NewLabel("")
	u.status.Alignment = fyne.TextAlignCenter
	controlsLabel := widget.NewLabel("ENTER: simplify/restore  1-3: level  ESC: cancel  V: select  R: read aloud  Y: copy  N/P: chapter  T: chapters  +/-: font  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	reading := container.NewBorder(
		u.status,
		container.NewVBox(u.panels, controlsLabel),
		nil, nil,
		u.scroll,
	)

	chapters := widget.NewList(
		func() int { return len(s.book.Chapters) },
		func() fyne.CanvasObject { return widget.NewLabel("Title") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(s.book.Chapters[id].Title)
		},
	)
	chapters.OnSelected = func(id widget.ListItemID) {
		if id != s.chapter {
			u.openChapter(id)
			u.refresh()
		}
	}
	chapterPanel := container.NewBorder(widget.NewLabel("Chapters"), nil, nil, nil, chapters)
	u.split = container.NewHSplit(chapterPanel, reading)
	u.split.Offset = 0.25
	if len(s.book.Chapters) < 2 {
		chapterPanel.Hide()
	}

	u.openChapter(pos.Chapter)
	u.cursor = pos.Word
	u.refresh()

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyLeft:
			u.moveTo(u.cursor - 1)
		case fyne.KeyRight:
			u.moveTo(u.cursor + 1)
		case fyne.KeyUp:
			u.moveLines(-1)
		case fyne.KeyDown:
			u.moveLines(1)
		case fyne.KeyReturn, fyne.KeyEnter:
			simplifyAt(s, u.layout, u.cursor)
		case fyne.KeyEscape:
			cancelPrompt(s)
			u.mark = -1
		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())
		case fyne.KeyQ:
			u.s.save(u.cursor)
			a.Quit()
		}
		u.refresh()
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '1', '2', '3':
			if level, ok := levelForKey(string(r)); ok {
				chooseLevel(s, level)
			}
		case 'v', 'V':
			if u.mark < 0 {
				u.mark = u.cursor
			} else {
				selectSpan(s, u.layout, u.mark, u.cursor)
				u.mark = -1
			}
		case 'r', 'R':
			readAloudLatest(s)
		case 'y', 'Y':
			from := u.cursor
			if u.mark >= 0 {
				from = u.mark
			}
			if err := clipboard.WriteAll(u.layout.Selection(from, u.cursor).Text); err != nil {
				u.s.log.Warnw("copy selection", logger.FieldError, err)
			}
		case 'n', 'N':
			if s.chapter+1 < len(s.book.Chapters) {
				chapters.Select(s.chapter + 1)
			}
		case 'p', 'P':
			if s.chapter > 0 {
				chapters.Select(s.chapter - 1)
			}
		case 't', 'T':
			if len(s.book.Chapters) > 1 {
				if chapterPanel.Visible() {
					chapterPanel.Hide()
				} else {
					chapterPanel.Show()
				}
				u.split.Refresh()
			}
		case '+', '=':
			if u.fontSize < 48 {
				u.fontSize += 2
			}
		case '-':
			if u.fontSize > 10 {
				u.fontSize -= 2
			}
		}
		u.refresh()
	})

	w.Resize(fyne.NewSize(900, 700))
	w.SetContent(u.split)

	// Re-wrap when the window width changes.
	done := make(chan struct{})
	var closeOnce sync.Once
	go func() {
		var lastWidth float32
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				fyne.Do(func() {
					if width := u.scroll.Size().Width; width > 0 && width != lastWidth {
						lastWidth = width
						u.refresh()
					}
				})
			}
		}
	}()

	w.SetOnClosed(func() {
		u.s.save(u.cursor)
		closeOnce.Do(func() {
			close(done)
		})
	})

	w.ShowAndRun()
	return nil
}
