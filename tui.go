//go:build !gui

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/engine"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/state"
	"github.com/metcalfc/simplyread/internal/view"
)

// The terminal belongs to bubbletea, so logs go to a file.
const uiOwnsTerminal = true

const headerHeight = 1

var (
	markedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	termStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#FFAA00"))

	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#444488"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	affirmativeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00FF00")).
				Bold(true).
				Padding(0, 1)

	cautionaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#AAAAAA"))
)

type keyMap struct {
	Left, Right, Up, Down key.Binding
	Simplify              key.Binding
	Select                key.Binding
	Level                 key.Binding
	Cancel                key.Binding
	ReadAloud             key.Binding
	Copy                  key.Binding
	Next, Prev            key.Binding
	Help                  key.Binding
	Quit                  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Simplify, k.Select, k.ReadAloud, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Simplify, k.Level, k.Cancel},
		{k.Select, k.ReadAloud, k.Copy},
		{k.Next, k.Prev, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev word")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next word")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "line up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "line down")),
	Simplify:  key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "simplify/restore")),
	Select:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "start/end selection")),
	Level:     key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "easy/medium/hard")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	ReadAloud: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "read aloud")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
	Next:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n/p", "next/prev chapter")),
	Prev:      key.NewBinding(key.WithKeys("p")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// postMsg carries engine work posted from another goroutine onto the
// bubbletea loop.
type postMsg func()

// hit is the screen area of an overlay button.
type hit struct {
	row, x0, x1 int
	node        *html.Node
}

type model struct {
	s       *session
	eng     *engine.Engine
	keys    keyMap
	help    help.Model
	vp      viewport.Model
	layout  *view.Layout
	pointer *view.Pointer

	cursor int
	shown  int
	mark   int
	panel  string
	hits   []hit
	status string

	width    int
	height   int
	quitting bool
}

func newModel(s *session, pos state.Position) *model {
	m := &model{
		s:      s,
		keys:   keys,
		help:   help.New(),
		vp:     viewport.New(80, 20),
		shown:  -1,
		mark:   -1,
		width:  80,
		height: 24,
	}
	m.openChapter(pos.Chapter)
	m.cursor = pos.Word
	m.refresh()
	return m
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postMsg:
		msg()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.MouseMsg:
		m.mouse(msg)

	case tea.KeyMsg:
		if cmd := m.key(msg); cmd != nil {
			m.refresh()
			return m, cmd
		}
	}
	m.refresh()
	return m, nil
}

func (m *model) key(msg tea.KeyMsg) tea.Cmd {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.s.save(m.cursor)
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Left):
		m.moveTo(m.cursor - 1)
	case key.Matches(msg, m.keys.Right):
		m.moveTo(m.cursor + 1)
	case key.Matches(msg, m.keys.Up):
		m.moveLines(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveLines(1)

	case key.Matches(msg, m.keys.Simplify):
		simplifyAt(m.s, m.layout, m.cursor)

	case key.Matches(msg, m.keys.Level):
		if level, ok := levelForKey(msg.String()); ok {
			chooseLevel(m.s, level)
		}

	case key.Matches(msg, m.keys.Cancel):
		cancelPrompt(m.s)
		m.mark = -1

	case key.Matches(msg, m.keys.Select):
		if m.mark < 0 {
			m.mark = m.cursor
			m.status = "selecting: move to extend, v to finish"
			break
		}
		selectSpan(m.s, m.layout, m.mark, m.cursor)
		m.mark = -1

	case key.Matches(msg, m.keys.ReadAloud):
		if !readAloudLatest(m.s) {
			m.status = "select text first"
		}

	case key.Matches(msg, m.keys.Copy):
		a, b := m.cursor, m.cursor
		if m.mark >= 0 {
			a, b = m.mark, m.cursor
		}
		text := m.layout.Selection(a, b).Text
		if err := clipboard.WriteAll(text); err != nil {
			m.status = "copy failed: " + err.Error()
		} else {
			m.status = fmt.Sprintf("copied %d characters", len(text))
		}

	case key.Matches(msg, m.keys.Next):
		m.switchChapter(m.s.chapter + 1)
	case key.Matches(msg, m.keys.Prev):
		m.switchChapter(m.s.chapter - 1)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *model) mouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.vp.SetYOffset(m.vp.YOffset - 3)
		return
	case tea.MouseButtonWheelDown:
		m.vp.SetYOffset(m.vp.YOffset + 3)
		return
	}

	tok := m.tokenAt(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if n := m.buttonAt(msg.X, msg.Y); n != nil {
			m.s.publish(events.Click{Target: n})
			return
		}
		m.pointer.Press(tok)
		if tok >= 0 {
			m.cursor = tok
		}

	case tea.MouseActionMotion:
		if msg.Button == tea.MouseButtonLeft {
			m.pointer.Drag(tok)
			if tok >= 0 {
				m.cursor = tok
			}
			return
		}
		for _, ev := range m.pointer.Move(tok) {
			m.s.publish(ev)
		}

	case tea.MouseActionRelease:
		for _, ev := range m.pointer.Release(tok, time.Now()) {
			m.s.publish(ev)
		}
	}
}

// tokenAt maps a screen cell to a token of the body, or -1.
func (m *model) tokenAt(x, y int) int {
	row := y - headerHeight
	if row < 0 || row >= m.vp.Height {
		return -1
	}
	return m.layout.At(row+m.vp.YOffset, x)
}

func (m *model) buttonAt(x, y int) *html.Node {
	for _, h := range m.hits {
		if h.row == y && x >= h.x0 && x < h.x1 {
			return h.node
		}
	}
	return nil
}

func (m *model) token(i int) (view.Token, bool) {
	if i < 0 || i >= len(m.layout.Tokens) {
		return view.Token{}, false
	}
	return m.layout.Tokens[i], true
}

func (m *model) moveTo(i int) {
	if i < 0 || i >= len(m.layout.Tokens) {
		return
	}
	m.cursor = i
	for _, ev := range m.pointer.Move(i) {
		m.s.publish(ev)
	}
}

func (m *model) moveLines(delta int) {
	tok, ok := m.token(m.cursor)
	if !ok {
		return
	}
	for line := tok.Line + delta; line >= 0 && line < len(m.layout.Lines); line += delta {
		if i := m.layout.Nearest(line, tok.Col); i >= 0 {
			m.moveTo(i)
			return
		}
	}
}

func (m *model) openChapter(i int) {
	m.eng = m.s.open(i)
	m.layout = view.Build(m.eng.Document(), m.textWidth())
	m.pointer = view.NewPointer(m.eng.Document(), m.layout, m.s.cfg.UI.DoubleClick())
	m.cursor, m.shown, m.mark = 0, -1, -1
	m.vp.GotoTop()
}

func (m *model) switchChapter(i int) {
	if i < 0 || i >= len(m.s.book.Chapters) || i == m.s.chapter {
		return
	}
	m.s.save(m.cursor)
	m.openChapter(i)
	m.s.save(0)
}

func (m *model) textWidth() int {
	return max(m.width-1, 20)
}

// refresh rebuilds the layout from the live document and sizes the
// viewport around the overlay panel.
func (m *model) refresh() {
	m.layout = view.Build(m.eng.Document(), m.textWidth())
	m.pointer.Relayout(m.layout)
	if n := len(m.layout.Tokens); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}

	helpView := m.help.View(m.keys)
	bodyHeight := m.height - headerHeight - lipgloss.Height(helpView)
	m.panel = m.renderPanels()
	if m.panel != "" {
		bodyHeight -= lipgloss.Height(m.panel)
	}
	m.vp.Width = m.width
	m.vp.Height = max(bodyHeight, 1)
	for i := range m.hits {
		m.hits[i].row += headerHeight + m.vp.Height
	}

	m.vp.SetContent(m.renderBody())
	if m.cursor != m.shown {
		m.ensureVisible()
		m.shown = m.cursor
	}
}

func (m *model) ensureVisible() {
	line := m.layout.LineOf(m.cursor)
	switch {
	case line < m.vp.YOffset:
		m.vp.SetYOffset(line)
	case line >= m.vp.YOffset+m.vp.Height:
		m.vp.SetYOffset(line - m.vp.Height + 1)
	}
}

func (m *model) selection() (a, b int, ok bool) {
	if a, b, ok := m.pointer.Span(); ok && m.pointer.Dragging() {
		return a, b, true
	}
	if m.mark >= 0 {
		a, b = m.mark, m.cursor
		if a > b {
			a, b = b, a
		}
		return a, b, true
	}
	return -1, -1, false
}

func (m *model) renderBody() string {
	a, b, hasSel := m.selection()
	lines := make([]string, len(m.layout.Lines))
	for li, idxs := range m.layout.Lines {
		var sb strings.Builder
		col := 0
		for _, i := range idxs {
			t := m.layout.Tokens[i]
			if t.Col > col {
				sb.WriteString(strings.Repeat(" ", t.Col-col))
			}
			style := lipgloss.NewStyle()
			switch {
			case t.Marked != nil:
				style = markedStyle
			case t.Term != nil:
				style = termStyle
			}
			if hasSel && i >= a && i <= b {
				style = style.Inherit(selectedStyle)
			}
			if i == m.cursor {
				style = style.Inherit(cursorStyle)
			}
			sb.WriteString(style.Render(t.Text))
			col = t.End()
		}
		lines[li] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// renderPanels draws the overlays oldest first and records where their
// buttons landed, with rows counted from the top of the panel.
func (m *model) renderPanels() string {
	m.hits = m.hits[:0]
	var out []string
	row := 0
	for _, p := range view.Panels(m.eng.Document()) {
		style := panelStyle
		label := ""
		switch p.Kind {
		case prompt.Kind:
			label = "Simplify: "
		case engine.TooltipKind:
			label = "Definition: "
		case engine.BannerKind:
			style = cautionaryStyle
			if p.Tone == engine.BannerAffirmative {
				style = affirmativeStyle
			}
		case engine.SpeakKind:
			label = "Selection: "
		}
		if p.Text != "" {
			text := style.Width(m.width).Render(label + p.Text)
			out = append(out, text)
			row += lipgloss.Height(text)
		}
		if len(p.Buttons) == 0 {
			continue
		}

		var sb strings.Builder
		x := 1
		sb.WriteString(" ")
		for i, b := range p.Buttons {
			hint := buttonHint(p.Kind, i)
			rendered := buttonStyle.Render(" " + hint + b.Label + " ")
			w := lipgloss.Width(rendered)
			m.hits = append(m.hits, hit{row: row, x0: x, x1: x + w, node: b.Node})
			sb.WriteString(rendered + " ")
			x += w + 1
		}
		out = append(out, sb.String())
		row++
	}
	return strings.Join(out, "\n")
}

func buttonHint(kind string, i int) string {
	switch kind {
	case prompt.Kind:
		return fmt.Sprintf("%d ", i+1)
	case engine.SpeakKind:
		return "r "
	}
	return ""
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}

	total := len(m.layout.Tokens)
	info := fmt.Sprintf("%s | %d/%d | word %d/%d | %d simplified",
		m.s.book.Chapters[m.s.chapter].Title,
		m.s.chapter+1, len(m.s.book.Chapters),
		min(m.cursor+1, total), total,
		m.eng.Registry().Len())
	if title := m.s.title(); title != "" && title != m.s.book.Chapters[m.s.chapter].Title {
		info = title + " | " + info
	}
	if tok, ok := m.token(m.cursor); ok && m.eng.Simplify.Pending(tok.Text) {
		info += pendingStyle.Render(" [FETCHING]")
	}
	if m.status != "" {
		info += " | " + m.status
	}

	var sb strings.Builder
	sb.WriteString(statusStyle.Render(info))
	sb.WriteString("\n")
	sb.WriteString(m.vp.View())
	sb.WriteString("\n")
	if m.panel != "" {
		sb.WriteString(m.panel)
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// runUI runs the terminal reader until the user quits.
func runUI(s *session, pos state.Position) error {
	var p *tea.Program
	s.start(events.DispatcherFunc(func(fn func()) {
		p.Send(postMsg(fn))
	}))

	m := newModel(s, pos)
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
