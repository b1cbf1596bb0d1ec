package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pav/internal/logging"
	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/renderer"
)

type fakeController struct {
	mu        sync.Mutex
	selected  []string
	saved     []string
	selectErr error
}

func (f *fakeController) SelectFile(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.selected = append(f.selected, path)

	return f.selectErr
}

func (f *fakeController) SaveImage(_ context.Context, format renderer.Format, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved = append(f.saved, format.String()+":"+dest)

	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)
}

func newTestPlainUI(preview string) (*plainUI, *bytes.Buffer) {
	var buf bytes.Buffer

	u := newPlainUI(&buf, preview, true, logging.Discard())
	u.now = fixedClock

	return u, &buf
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func TestImagePath(t *testing.T) {
	assert.Equal(t, "/tmp/d.svg", imagePath("/tmp/d.puml", renderer.FormatSVG))
	assert.Equal(t, "/tmp/d.png", imagePath("/tmp/d.puml", renderer.FormatPNG))
	assert.Equal(t, "notes.svg", imagePath("notes", renderer.FormatSVG))
}

func TestPreviewPath(t *testing.T) {
	assert.Equal(t, "/tmp/d.preview.svg", previewPath("/tmp/d.puml", ""))
	assert.Equal(t, "/x/live.svg", previewPath("/tmp/d.puml", "/x/live.svg"))
	assert.Empty(t, previewPath("", ""))
}

// ---------------------------------------------------------------------------
// Session commands
// ---------------------------------------------------------------------------

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    sessionCommand
		wantErr bool
	}{
		{"", sessionCommand{kind: cmdHelp}, false},
		{"help", sessionCommand{kind: cmdHelp}, false},
		{"quit", sessionCommand{kind: cmdQuit}, false},
		{"Q", sessionCommand{kind: cmdQuit}, false},
		{"open a.puml", sessionCommand{kind: cmdOpen, path: "a.puml"}, false},
		{"open", sessionCommand{}, true},
		{"save out.svg", sessionCommand{kind: cmdSave, path: "out.svg", format: renderer.FormatSVG}, false},
		{"save out.png", sessionCommand{kind: cmdSave, path: "out.png", format: renderer.FormatPNG}, false},
		{"save out", sessionCommand{kind: cmdSave, path: "out", format: renderer.FormatSVG}, false},
		{"save out png", sessionCommand{kind: cmdSave, path: "out.png", format: renderer.FormatPNG}, false},
		{"save out pdf", sessionCommand{}, true},
		{"save", sessionCommand{}, true},
		{"frobnicate", sessionCommand{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Plain front end
// ---------------------------------------------------------------------------

func TestPlainUI_StatusLine(t *testing.T) {
	u, buf := newTestPlainUI("")

	u.handle(notify.StatusMessage("Watching: %s", "/tmp/d.puml"))

	assert.Equal(t, "12:30:45 Watching: /tmp/d.puml\n", buf.String())
}

func TestPlainUI_LoadingOnlyReportsStart(t *testing.T) {
	u, buf := newTestPlainUI("")

	u.handle(notify.LoadingChanged(true))
	u.handle(notify.LoadingChanged(false))

	assert.Equal(t, "12:30:45 rendering...\n", buf.String())
}

func TestPlainUI_ImageWritesPreview(t *testing.T) {
	dir := t.TempDir()
	u, buf := newTestPlainUI("")
	u.setSource(filepath.Join(dir, "d.puml"))

	u.handle(notify.ImageGenerated([]byte("<svg/>")))

	data, err := os.ReadFile(filepath.Join(dir, "d.preview.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
	assert.Contains(t, buf.String(), "preview updated")
	assert.Contains(t, buf.String(), "(6 bytes)")
}

func TestPlainUI_EmptyImageWarns(t *testing.T) {
	dir := t.TempDir()
	preview := filepath.Join(dir, "live.svg")
	u, buf := newTestPlainUI(preview)

	u.handle(notify.ImageGenerated(nil))

	assert.NoFileExists(t, preview)
	assert.Contains(t, buf.String(), "renderer produced no output")
}

func TestPlainUI_RunStopsOnCancel(t *testing.T) {
	u, _ := newTestPlainUI("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, u.run(ctx, make(chan notify.Event)))
}

func TestPlainUI_ReadCommands(t *testing.T) {
	u, buf := newTestPlainUI("")
	ctl := &fakeController{}
	in := strings.NewReader("open a.puml\nsave out.png\nbogus\nhelp\nquit\nopen never.puml\n")

	quit := false
	u.readCommands(context.Background(), in, ctl, func() { quit = true })

	assert.True(t, quit)
	assert.Equal(t, []string{"a.puml"}, ctl.selected)
	assert.Equal(t, []string{"png:out.png"}, ctl.saved)
	assert.Contains(t, buf.String(), `unknown command "bogus"`)
	assert.Contains(t, buf.String(), "open <file>")
	assert.Equal(t, "a.puml", u.source)
}

func TestPlainUI_FailedOpenRestoresSource(t *testing.T) {
	u, _ := newTestPlainUI("")
	u.setSource("first.puml")
	ctl := &fakeController{selectErr: errors.New("not found")}

	u.readCommands(context.Background(), strings.NewReader("open missing.puml\n"), ctl, func() {})

	assert.Equal(t, "first.puml", u.source)
}

// ---------------------------------------------------------------------------
// Interactive front end
// ---------------------------------------------------------------------------

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestWatchModel(ctl controller, startup, preview string) watchModel {
	return newWatchModel(context.Background(), ctl, make(chan notify.Event), startup, preview)
}

func TestWatchModel_QuitKeys(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")

	for _, key := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestWatchModel_ShowsQuickStartWithoutFile(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")

	assert.Contains(t, m.View(), "Quick start")
}

func TestWatchModel_OpenPrompt(t *testing.T) {
	ctl := &fakeController{}
	m := newTestWatchModel(ctl, "", "")

	next, _ := m.Update(keyRunes("o"))
	m = next.(watchModel)
	require.True(t, m.prompting)

	next, _ = m.Update(keyRunes("d.puml"))
	m = next.(watchModel)
	assert.Contains(t, m.View(), "d.puml")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(watchModel)
	assert.False(t, m.prompting)
	assert.Equal(t, "d.puml", m.pending)
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Equal(t, selectDoneMsg{path: "d.puml"}, msg)
	assert.Equal(t, []string{"d.puml"}, ctl.selected)

	next, _ = m.Update(msg)
	m = next.(watchModel)
	assert.Equal(t, "d.puml", m.source)
	assert.Empty(t, m.pending)
	assert.Contains(t, m.View(), "Watching")
}

func TestWatchModel_PromptEscape(t *testing.T) {
	ctl := &fakeController{}
	m := newTestWatchModel(ctl, "", "")

	next, _ := m.Update(keyRunes("o"))
	next, cmd := next.(watchModel).Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(watchModel)

	assert.False(t, m.prompting)
	assert.Nil(t, cmd)
	assert.Empty(t, ctl.selected)
}

func TestWatchModel_FailedSelectKeepsPreviousFile(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")
	m.source = "old.puml"
	m.pending = "new.puml"

	next, _ := m.Update(selectDoneMsg{path: "new.puml", err: errors.New("not found")})
	m = next.(watchModel)

	assert.Equal(t, "old.puml", m.source)
	assert.Empty(t, m.pending)
}

func TestWatchModel_SaveKeys(t *testing.T) {
	ctl := &fakeController{}
	m := newTestWatchModel(ctl, "", "")
	m.source = "/tmp/d.puml"

	_, cmd := m.Update(keyRunes("s"))
	require.NotNil(t, cmd)
	assert.Equal(t, saveDoneMsg{path: "/tmp/d.svg"}, cmd())

	_, cmd = m.Update(keyRunes("p"))
	require.NotNil(t, cmd)
	assert.Equal(t, saveDoneMsg{path: "/tmp/d.png"}, cmd())

	assert.Equal(t, []string{"svg:/tmp/d.svg", "png:/tmp/d.png"}, ctl.saved)
}

func TestWatchModel_StatusAndLoadingEvents(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")

	next, _ := m.Update(eventMsg(notify.StatusMessage("Watching: %s", "d.puml")))
	m = next.(watchModel)
	assert.Equal(t, "Watching: d.puml", m.status)

	next, _ = m.Update(eventMsg(notify.LoadingChanged(true)))
	m = next.(watchModel)
	assert.True(t, m.loading)
	assert.Contains(t, m.View(), "Rendering...")

	next, _ = m.Update(eventMsg(notify.LoadingChanged(false)))
	m = next.(watchModel)
	assert.False(t, m.loading)
	assert.NotContains(t, m.View(), "Rendering...")
}

func TestWatchModel_EmptyImageSetsStatus(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")

	next, _ := m.Update(eventMsg(notify.ImageGenerated(nil)))
	m = next.(watchModel)

	assert.Contains(t, m.status, "no output")
}

func TestWatchModel_WritePreviewUsesPendingSource(t *testing.T) {
	dir := t.TempDir()
	m := newTestWatchModel(&fakeController{}, filepath.Join(dir, "d.puml"), "")

	next, _ := m.Update(eventMsg(notify.ImageGenerated([]byte("<svg/>"))))
	m = next.(watchModel)

	want := filepath.Join(dir, "d.preview.svg")
	assert.Equal(t, want, m.preview)
	assert.Equal(t, 6, m.previewSize)
	assert.Contains(t, m.View(), "6 bytes")

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func TestWatchModel_PreviewKeepsLatestImage(t *testing.T) {
	dir := t.TempDir()
	m := newTestWatchModel(&fakeController{}, filepath.Join(dir, "d.puml"), "")

	for _, img := range []string{"<svg>1</svg>", "<svg>2</svg>", "<svg>3</svg>"} {
		next, _ := m.Update(eventMsg(notify.ImageGenerated([]byte(img))))
		m = next.(watchModel)
	}

	data, err := os.ReadFile(filepath.Join(dir, "d.preview.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg>3</svg>", string(data))
}

func TestWatchModel_PreviewWriteFailureSetsStatus(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	m := newTestWatchModel(&fakeController{}, filepath.Join(dir, "d.puml"), filepath.Join(blocker, "p.svg"))

	next, _ := m.Update(eventMsg(notify.ImageGenerated([]byte("<svg/>"))))
	m = next.(watchModel)

	assert.Contains(t, m.status, "Cannot update preview")
	assert.Empty(t, m.preview)
}

func TestWatchModel_NoPreviewWithoutSource(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")

	next, _ := m.Update(eventMsg(notify.ImageGenerated([]byte("<svg/>"))))
	m = next.(watchModel)

	assert.Empty(t, m.preview)
}

func TestWatchModel_WindowSize(t *testing.T) {
	m := newTestWatchModel(&fakeController{}, "", "")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, next.(watchModel).width)
}

func TestShouldUseWatchUI(t *testing.T) {
	assert.True(t, shouldUseWatchUI(true, false))
	assert.False(t, shouldUseWatchUI(true, true))
	assert.False(t, shouldUseWatchUI(false, false))
}

func TestIsTerminal_RegularFileAndNil(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, isTerminal(f))
	assert.False(t, isTerminal(nil))
}

func TestSupportsWatchUI(t *testing.T) {
	tests := []struct {
		term string
		want bool
	}{
		{"xterm-256color", true},
		{"screen", true},
		{" DUMB ", false},
		{"dumb", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, supportsWatchUI(tt.term))
		})
	}
}
