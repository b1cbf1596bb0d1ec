package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/renderer"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type renderCall struct {
	format renderer.Format
	text   string
}

// fakeRenderer echoes its input and can be held open with gate.
type fakeRenderer struct {
	mu      sync.Mutex
	calls   []renderCall
	gate    chan struct{}
	started chan string
	err     error
}

func (f *fakeRenderer) Render(ctx context.Context, format renderer.Format, text string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, renderCall{format: format, text: text})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- text
	}

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return []byte(string(format) + ":" + text), f.err
}

func (f *fakeRenderer) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.text)
	}

	return out
}

// recorder is a thread-safe notify.Emitter.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Emit(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]notify.Event(nil), r.events...)
}

func startWorker(t *testing.T, w *Worker) context.CancelFunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return cancel
}

// ---------------------------------------------------------------------------
// Mailbox
// ---------------------------------------------------------------------------

func TestRequestGeneration_NeverBlocks(t *testing.T) {
	w := New(&fakeRenderer{}, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			w.RequestGeneration("text")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestGeneration blocked without a running worker")
	}

	assert.True(t, w.Pending())
	assert.Equal(t, Stats{Requested: 100, Coalesced: 99}, w.Stats())
}

func TestRequestGeneration_SequenceNumbers(t *testing.T) {
	w := New(&fakeRenderer{}, nil)

	assert.Equal(t, uint64(1), w.RequestGeneration("a"))
	assert.Equal(t, uint64(2), w.RequestGeneration("b"))
}

func TestRun_RendersSingleRequest(t *testing.T) {
	fr := &fakeRenderer{}
	rec := &recorder{}
	w := New(fr, rec)
	startWorker(t, w)

	w.RequestGeneration("@startuml\nA -> B\n@enduml")

	require.Eventually(t, func() bool { return w.Stats().Rendered == 1 && w.State() == Idle },
		2*time.Second, 10*time.Millisecond)

	events := rec.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, notify.LoadingChanged(true), events[0])
	assert.Equal(t, notify.KindImageGenerated, events[1].Kind)
	assert.Equal(t, "svg:@startuml\nA -> B\n@enduml", string(events[1].Image))
	assert.Equal(t, notify.LoadingChanged(false), events[2])
}

func TestRun_CoalescesRequestsDuringRender(t *testing.T) {
	fr := &fakeRenderer{gate: make(chan struct{}), started: make(chan string, 16)}
	rec := &recorder{}
	w := New(fr, rec)
	startWorker(t, w)

	w.RequestGeneration("v1")
	assert.Equal(t, "v1", <-fr.started)
	assert.Equal(t, Rendering, w.State())

	const n = 10
	for i := 2; i <= n; i++ {
		w.RequestGeneration(fmt.Sprintf("v%d", i))
	}

	w.RequestGeneration("latest")

	// Release the in-flight render and the follow-up.
	fr.gate <- struct{}{}
	assert.Equal(t, "latest", <-fr.started)
	fr.gate <- struct{}{}

	require.Eventually(t, func() bool { return w.Stats().Rendered == 2 && w.State() == Idle },
		2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"v1", "latest"}, fr.texts())

	stats := w.Stats()
	assert.Equal(t, uint64(n+1), stats.Requested)
	assert.Less(t, stats.Rendered, stats.Requested)
	assert.Equal(t, uint64(n-1), stats.Coalesced)

	var images []string
	for _, ev := range rec.snapshot() {
		if ev.Kind == notify.KindImageGenerated {
			images = append(images, string(ev.Image))
		}
	}

	assert.Equal(t, []string{"svg:v1", "svg:latest"}, images)
}

func TestRun_RendererErrorStillEmitsOutput(t *testing.T) {
	fr := &fakeRenderer{err: errors.New("exit status 1")}
	rec := &recorder{}
	w := New(fr, rec)
	startWorker(t, w)

	w.RequestGeneration("broken")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 },
		2*time.Second, 10*time.Millisecond)

	events := rec.snapshot()
	assert.Equal(t, "svg:broken", string(events[1].Image))
	assert.Equal(t, notify.LoadingChanged(false), events[2])
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := New(&fakeRenderer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

// ---------------------------------------------------------------------------
// RenderDirect
// ---------------------------------------------------------------------------

func TestRenderDirect_BypassesMailbox(t *testing.T) {
	fr := &fakeRenderer{}
	rec := &recorder{}
	w := New(fr, rec)

	w.RequestGeneration("pending")

	out, err := w.RenderDirect(context.Background(), renderer.FormatPNG, "direct")
	require.NoError(t, err)
	assert.Equal(t, "png:direct", string(out))

	assert.Empty(t, rec.snapshot())
	assert.Equal(t, Idle, w.State())
	assert.True(t, w.Pending(), "direct render must not consume the mailbox")
	assert.Equal(t, uint64(0), w.Stats().Rendered)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "rendering", Rendering.String())
	assert.Equal(t, "state(7)", State(7).String())
}
