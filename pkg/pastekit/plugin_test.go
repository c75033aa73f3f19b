package pastekit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastekit/pastekit/internal/common/config"
	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/events"
	"github.com/pastekit/pastekit/internal/events/bus"
	"github.com/pastekit/pastekit/pkg/host"
)

func newTestLogger() *logger.Logger {
	log, _ := logger.NewLogger(logger.LoggingConfig{
		Level:  "error",
		Format: "json",
	})
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		Pending: config.PendingConfig{
			Capacity: 4,
			MaxBytes: 10 * 1024 * 1024,
			AllowedTypes: []string{
				"image/png", "image/jpeg", "image/gif", "image/webp",
			},
		},
		Input: config.InputConfig{Region: "chat-input"},
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type testInput struct {
	region string
	text   string
	sent   []string
}

func (m *testInput) Region() string { return m.region }
func (m *testInput) Text() string { return m.text }
func (m *testInput) SetText(text string) { m.text = text }

func (m *testInput) SendMsg(text string) error {
	m.sent = append(m.sent, text)
	return nil
}

type testNotifier struct {
	warnings []string
	errors   []string
}

func (m *testNotifier) Warn(title, description string) {
	m.warnings = append(m.warnings, title+": "+description)
}

func (m *testNotifier) Error(title, description string) {
	m.errors = append(m.errors, title+": "+description)
}

type testRegistry struct{}

func (testRegistry) Encoder(kind string) (host.EncoderFunc, bool) {
	if kind != "image" {
		return nil, false
	}
	return func(ref string, meta host.ImageMeta) string {
		return fmt.Sprintf("![image](%s)", ref)
	}, true
}

type testUploader struct {
	calls int
	err   error
}

func (m *testUploader) Upload(ctx context.Context, content []byte, opts host.UploadOptions) (*host.UploadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.calls++
	return &host.UploadResult{
		ID:  fmt.Sprintf("media-%d", m.calls),
		URL: fmt.Sprintf("https://cdn/media-%d", m.calls),
	}, nil
}

// testHost is an in-memory host.Host that records registrations and lets
// tests dispatch synthetic paste and key events.
type testHost struct {
	input    *testInput
	notifier *testNotifier
	uploader *testUploader

	pasteHandlers  []host.PasteHandler
	controls       map[string]func() host.ControlData
	pasteListeners []func(ev *host.PasteEvent)
	keyListeners   []func(ev *host.KeyEvent)
}

func newTestHost() *testHost {
	return &testHost{
		input:    &testInput{region: "chat-input"},
		notifier: &testNotifier{},
		uploader: &testUploader{},
		controls: make(map[string]func() host.ControlData),
	}
}

func (h *testHost) ChatInput() host.ChatInput { return h.input }
func (h *testHost) Markup() host.MarkupRegistry { return testRegistry{} }
func (h *testHost) Uploader() host.Uploader { return h.uploader }
func (h *testHost) Notifier() host.Notifier { return h.notifier }

func (h *testHost) RegisterPasteHandler(ph host.PasteHandler) {
	h.pasteHandlers = append(h.pasteHandlers, ph)
}

func (h *testHost) RegisterControl(name string, data func() host.ControlData) {
	h.controls[name] = data
}

func (h *testHost) AddPasteListener(fn func(ev *host.PasteEvent)) {
	h.pasteListeners = append(h.pasteListeners, fn)
}

func (h *testHost) AddKeyListener(fn func(ev *host.KeyEvent)) {
	h.keyListeners = append(h.keyListeners, fn)
}

func (h *testHost) paste(ev *host.PasteEvent) {
	for _, fn := range h.pasteListeners {
		fn(ev)
		if ev.PropagationStopped() {
			return
		}
	}
}

func (h *testHost) key(ev *host.KeyEvent) {
	for _, fn := range h.keyListeners {
		fn(ev)
		if ev.PropagationStopped() {
			return
		}
	}
}

func TestPlugin_AttachRegistersEverything(t *testing.T) {
	h := newTestHost()
	p := New(testConfig(), h, nil, newTestLogger())
	p.Attach(context.Background())
	defer p.Detach()

	assert.Len(t, h.pasteListeners, 1)
	assert.Len(t, h.keyListeners, 1)
	require.Len(t, h.pasteHandlers, 1)
	assert.Equal(t, "pending-images", h.pasteHandlers[0].Name)
	assert.Contains(t, h.controls, "pending-images")
}

func TestPlugin_PasteThenEnterSendsMessage(t *testing.T) {
	h := newTestHost()
	p := New(testConfig(), h, nil, newTestLogger())
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input", "app"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
			{Name: "two.png", MIME: "image/png", Data: encodePNG(t, 8, 8)},
		},
	})

	require.Equal(t, 2, p.Store().Len())
	assert.Equal(t, 2, strings.Count(h.input.text, "pending://image/"))

	h.key(&host.KeyEvent{Key: "Enter", Path: []string{"chat-input", "app"}})

	require.Len(t, h.input.sent, 1)
	final := h.input.sent[0]
	assert.Contains(t, final, "https://cdn/media-1")
	assert.Contains(t, final, "https://cdn/media-2")
	assert.NotContains(t, final, "pending://image/")
	assert.Empty(t, h.input.text)
	assert.Equal(t, 0, p.Store().Len())
}

func TestPlugin_ControlRemoveStripsMarkup(t *testing.T) {
	h := newTestHost()
	p := New(testConfig(), h, nil, newTestLogger())
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
		},
	})
	require.Equal(t, 1, p.Store().Len())

	data := h.controls["pending-images"]()
	require.Len(t, data.Images, 1)
	data.Remove(data.Images[0].ID)

	assert.Equal(t, 0, p.Store().Len())
	assert.Empty(t, h.input.text, "placeholder markup is stripped on removal")
}

func TestPlugin_ControlSendEqualsEnter(t *testing.T) {
	h := newTestHost()
	p := New(testConfig(), h, nil, newTestLogger())
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
		},
	})

	h.controls["pending-images"]().Send()
	require.Len(t, h.input.sent, 1)
}

func TestPlugin_FailedUploadKeepsStateForRetry(t *testing.T) {
	h := newTestHost()
	h.uploader.err = errors.New("network down")
	p := New(testConfig(), h, nil, newTestLogger())
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
		},
	})
	textBefore := h.input.text

	h.key(&host.KeyEvent{Key: "Enter", Path: []string{"chat-input"}})

	assert.Empty(t, h.input.sent)
	assert.Equal(t, textBefore, h.input.text)
	assert.Equal(t, 1, p.Store().Len())
	require.Len(t, h.notifier.errors, 1)

	// Clearing the fault makes the identical send attempt succeed.
	h.uploader.err = nil
	p.Send(context.Background())
	require.Len(t, h.input.sent, 1)
	assert.Equal(t, 0, p.Store().Len())
}

func TestPlugin_BridgesQueueChangesOntoBus(t *testing.T) {
	log := newTestLogger()
	eventBus := bus.NewMemoryEventBus(log)
	defer eventBus.Close()

	var mu sync.Mutex
	var lengths []int
	_, err := eventBus.Subscribe("pastekit.pending", func(ctx context.Context, event *bus.Event) error {
		mu.Lock()
		defer mu.Unlock()
		if n, ok := event.Data["queue_length"].(int); ok {
			lengths = append(lengths, n)
		}
		return nil
	})
	require.NoError(t, err)

	h := newTestHost()
	p := New(testConfig(), h, eventBus, log)
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
		},
	})

	// Delivery on the in-memory bus is asynchronous.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lengths) > 0 && lengths[len(lengths)-1] == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlugin_AnnouncesSentMessageOnBus(t *testing.T) {
	log := newTestLogger()
	eventBus := bus.NewMemoryEventBus(log)
	defer eventBus.Close()

	sent := make(chan *bus.Event, 1)
	_, err := eventBus.Subscribe(events.SubjectSends, func(ctx context.Context, event *bus.Event) error {
		sent <- event
		return nil
	})
	require.NoError(t, err)

	h := newTestHost()
	p := New(testConfig(), h, eventBus, log)
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
		},
	})
	h.key(&host.KeyEvent{Key: "Enter", Path: []string{"chat-input"}})
	require.Len(t, h.input.sent, 1)

	select {
	case e := <-sent:
		assert.Equal(t, events.MessageSent, e.Type)
		assert.Equal(t, 1, e.Data["images"])
	case <-time.After(2 * time.Second):
		t.Fatal("sent-message event not delivered")
	}
}

func TestPlugin_AnswersQueueStateRequests(t *testing.T) {
	log := newTestLogger()
	eventBus := bus.NewMemoryEventBus(log)
	defer eventBus.Close()

	h := newTestHost()
	p := New(testConfig(), h, eventBus, log)
	p.Attach(context.Background())
	defer p.Detach()

	h.paste(&host.PasteEvent{
		Path: []string{"chat-input"},
		Files: []*host.File{
			{Name: "one.png", MIME: "image/png", Data: encodePNG(t, 4, 4)},
			{Name: "two.png", MIME: "image/png", Data: encodePNG(t, 8, 8)},
		},
	})
	require.Equal(t, 2, p.Store().Len())

	req := bus.NewEvent(events.PendingState, "observer", map[string]interface{}{})
	resp, err := eventBus.Request(context.Background(), events.SubjectPendingQuery, req, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, events.PendingState, resp.Type)
	assert.Equal(t, 2, resp.Data["queue_length"])
	assert.Equal(t, 4, resp.Data["capacity"])
}
