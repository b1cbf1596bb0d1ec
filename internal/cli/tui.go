package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hupe1980/pav/internal/logging"
	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/output"
	"github.com/hupe1980/pav/internal/renderer"
	"github.com/hupe1980/pav/internal/version"
)

const quickStart = `Quick start:
    1) Select the text file to be watched (o)
    2) Open the same text file in your favourite text editor
    3) Write PlantUML code to the file and save it
    4) pav detects the change and renders the diagram to the preview file
    5) Repeat from step (3)
    6) Save the image as SVG (s) or PNG (p)

PlantUML reference: https://plantuml.com/`

type (
	eventMsg      notify.Event
	selectDoneMsg struct {
		path string
		err  error
	}
	saveDoneMsg struct {
		path string
		err  error
	}
)

type watchModel struct {
	ctx    context.Context
	ctl    controller
	events <-chan notify.Event
	logger *slog.Logger
	theme  tuiTheme

	spinner spinner.Model
	input   textinput.Model

	override  string
	pending   string
	source    string
	status    string
	loading   bool
	prompting bool

	preview     string
	previewSize int
	previewAt   time.Time

	width int
}

func newWatchModel(ctx context.Context, ctl controller, events <-chan notify.Event, startup, preview string) watchModel {
	theme := newTUITheme()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.spinner

	ti := textinput.New()
	ti.Prompt = "open › "
	ti.Placeholder = "path/to/diagram.puml"

	return watchModel{
		ctx:      ctx,
		ctl:      ctl,
		events:   events,
		logger:   logging.Discard(),
		theme:    theme,
		spinner:  sp,
		input:    ti,
		override: preview,
		pending:  startup,
		width:    80,
	}
}

func (m watchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.listenForEvent()}
	if m.pending != "" {
		cmds = append(cmds, m.selectCmd(m.pending))
	}

	return tea.Batch(cmds...)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}

		return m, nil

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "o":
			m.prompting = true
			m.input.Reset()

			return m, m.input.Focus()
		case "s":
			return m, m.saveCmd(renderer.FormatSVG)
		case "p":
			return m, m.saveCmd(renderer.FormatPNG)
		}

		return m, nil

	case eventMsg:
		m.applyEvent(notify.Event(msg))
		return m, m.listenForEvent()

	case selectDoneMsg:
		if msg.err != nil {
			if m.pending == msg.path {
				m.pending = ""
			}

			return m, nil
		}

		m.source = msg.path
		m.pending = ""

		return m, nil

	case saveDoneMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m watchModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.prompting = false
		m.input.Blur()

		return m, nil
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		m.prompting = false
		m.input.Blur()

		if path == "" {
			return m, nil
		}

		m.pending = path

		return m, m.selectCmd(path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *watchModel) applyEvent(ev notify.Event) {
	switch ev.Kind {
	case notify.KindStatusMessage:
		m.status = ev.Message
	case notify.KindLoadingChanged:
		m.loading = ev.Loading
	case notify.KindImageGenerated:
		if len(ev.Image) == 0 {
			m.status = "Renderer produced no output (check --java and --jar)"
			return
		}

		m.writePreview(ev.Image)
	}
}

// currentSource prefers the confirmed file and falls back to the one being
// selected, since its first image can arrive before the selection returns.
func (m watchModel) currentSource() string {
	if m.pending != "" {
		return m.pending
	}

	return m.source
}

func (m watchModel) listenForEvent() tea.Cmd {
	events := m.events

	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}

		return eventMsg(ev)
	}
}

func (m watchModel) selectCmd(path string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl

	return func() tea.Msg {
		return selectDoneMsg{path: path, err: ctl.SelectFile(ctx, path)}
	}
}

func (m watchModel) saveCmd(f renderer.Format) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	dest := imagePath(m.source, f)

	return func() tea.Msg {
		return saveDoneMsg{path: dest, err: ctl.SaveImage(ctx, f, dest)}
	}
}

// writePreview stores img in the preview file. It runs inside Update so
// images land on disk in the order they were generated.
func (m *watchModel) writePreview(img []byte) {
	path := previewPath(m.currentSource(), m.override)
	if path == "" {
		return
	}

	if err := output.NewFileWriter(path, output.WithLogger(m.logger)).Write(img); err != nil {
		m.status = fmt.Sprintf("Cannot update preview: %v", err)
		return
	}

	m.preview = path
	m.previewSize = len(img)
	m.previewAt = time.Now()
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.title.Render("PlantUML Ascetic Viewer"))
	b.WriteString(" ")
	b.WriteString(m.theme.muted.Render(version.GetInfo().Short()))
	b.WriteString("\n\n")

	if m.source == "" && m.pending == "" {
		b.WriteString(m.theme.text.Render(quickStart))
		b.WriteString("\n\n")
	} else {
		lines := []string{
			m.theme.label.Render("Watching") + m.theme.text.Render(m.currentSource()),
		}

		preview := m.theme.muted.Render("waiting for first render")
		if m.preview != "" {
			preview = m.theme.ok.Render(m.preview) + m.theme.muted.Render(
				fmt.Sprintf(" (%d bytes, %s)", m.previewSize, m.previewAt.Format("15:04:05")))
		}

		lines = append(lines, m.theme.label.Render("Preview")+preview)

		width := m.width - 2
		if width < 20 {
			width = 20
		}

		b.WriteString(m.theme.panel.Width(width).Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	status := m.theme.info.Render(m.status)
	if m.loading {
		status = m.spinner.View() + " " + m.theme.warn.Render("Rendering...")
		if m.status != "" {
			status += m.theme.muted.Render("  " + m.status)
		}
	}

	b.WriteString(status)
	b.WriteString("\n")

	if m.prompting {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.theme.help.Render("enter watch file · esc cancel"))
	} else {
		b.WriteString(m.theme.help.Render("o open · s save svg · p save png · q quit"))
	}

	b.WriteString("\n")

	return b.String()
}
