package paste

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastekit/pastekit/internal/common/config"
	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/markup"
	"github.com/pastekit/pastekit/internal/pending"
	"github.com/pastekit/pastekit/pkg/host"
)

func newTestLogger() *logger.Logger {
	log, _ := logger.NewLogger(logger.LoggingConfig{
		Level:  "error",
		Format: "json",
	})
	return log
}

type mockInput struct {
	region string
	text   string
	sent   []string
}

func (m *mockInput) Region() string { return m.region }
func (m *mockInput) Text() string { return m.text }
func (m *mockInput) SetText(text string) { m.text = text }

func (m *mockInput) SendMsg(t string) error {
	m.sent = append(m.sent, t)
	return nil
}

type mockNotifier struct {
	warnings []string
	errors   []string
}

func (m *mockNotifier) Warn(title, description string) {
	m.warnings = append(m.warnings, title+": "+description)
}

func (m *mockNotifier) Error(title, description string) {
	m.errors = append(m.errors, title+": "+description)
}

type mockRegistry struct{}

func (mockRegistry) Encoder(kind string) (host.EncoderFunc, bool) {
	if kind != "image" {
		return nil, false
	}
	return func(ref string, meta host.ImageMeta) string {
		return fmt.Sprintf("![image](%s)", ref)
	}, true
}

type fileItem struct {
	file *host.File
}

func (i fileItem) Kind() string { return "file" }
func (i fileItem) MIME() string { return i.file.MIME }
func (i fileItem) AsFile() (*host.File, bool) { return i.file, true }

type stringItem struct{}

func (stringItem) Kind() string { return "string" }
func (stringItem) MIME() string { return "text/plain" }
func (stringItem) AsFile() (*host.File, bool) { return nil, false }

func newTestInterceptor(t *testing.T) (*Interceptor, *pending.Store, *mockInput, *mockNotifier) {
	t.Helper()
	log := newTestLogger()
	cfg := config.PendingConfig{
		Capacity: 4,
		MaxBytes: 10 * 1024 * 1024,
		AllowedTypes: []string{
			"image/png", "image/jpeg", "image/gif", "image/webp",
		},
	}
	store := pending.NewStore(cfg.Capacity, log)
	input := &mockInput{region: "chat-input"}
	notifier := &mockNotifier{}
	sync := markup.NewSynchronizer(mockRegistry{})
	ic := NewInterceptor(store, pending.NewPolicy(cfg), sync, input, notifier, log)
	return ic, store, input, notifier
}

func pngFile(name string) *host.File {
	return &host.File{Name: name, MIME: "image/png", Data: []byte("png-bytes-" + name)}
}

func TestInterceptor_PasteOutsideRegionIgnored(t *testing.T) {
	ic, store, _, _ := newTestInterceptor(t)

	ev := &host.PasteEvent{
		Path:  []string{"sidebar", "app"},
		Files: []*host.File{pngFile("a.png")},
	}
	ic.HandleDocumentPaste(ev)

	assert.False(t, ev.DefaultPrevented())
	assert.False(t, ev.PropagationStopped())
	assert.Equal(t, 0, store.Len())
}

func TestInterceptor_TextOnlyPasteLeftToHost(t *testing.T) {
	ic, store, _, _ := newTestInterceptor(t)

	ev := &host.PasteEvent{
		Path:  []string{"chat-input", "app"},
		Items: []host.ClipboardItem{stringItem{}},
	}
	ic.HandleDocumentPaste(ev)

	assert.False(t, ev.DefaultPrevented())
	assert.Equal(t, 0, store.Len())
}

func TestInterceptor_ImagePasteClaimsEventAndQueues(t *testing.T) {
	ic, store, input, notifier := newTestInterceptor(t)
	input.text = "draft"

	ev := &host.PasteEvent{
		Path:  []string{"chat-input", "app"},
		Files: []*host.File{pngFile("a.png"), pngFile("b.png")},
	}
	ic.HandleDocumentPaste(ev)

	assert.True(t, ev.DefaultPrevented())
	assert.True(t, ev.PropagationStopped())
	require.Equal(t, 2, store.Len())
	assert.Empty(t, notifier.warnings)

	snapshot := store.Snapshot()
	assert.Equal(t,
		fmt.Sprintf("draft\n![image](pending://image/%s)\n![image](pending://image/%s)",
			snapshot[0].ID, snapshot[1].ID),
		input.text)
}

func TestExtractImages_DeduplicatesFilesAndItems(t *testing.T) {
	f := pngFile("a.png")
	ev := &host.PasteEvent{
		Path:  []string{"chat-input"},
		Files: []*host.File{f},
		Items: []host.ClipboardItem{fileItem{file: f}, stringItem{}},
	}

	files := ExtractImages(ev)
	assert.Len(t, files, 1)
}

func TestExtractImages_KeepsDistinctImagesOfEqualSize(t *testing.T) {
	// Screenshots pasted from the clipboard routinely arrive nameless and,
	// for small captures, with identical byte lengths. Only the content
	// distinguishes them.
	a := &host.File{MIME: "image/png", Data: append([]byte("png-bytes-"), bytes.Repeat([]byte{0xAA}, 16)...)}
	b := &host.File{MIME: "image/png", Data: append([]byte("png-bytes-"), bytes.Repeat([]byte{0xBB}, 16)...)}
	require.Equal(t, len(a.Data), len(b.Data))

	files := ExtractImages(&host.PasteEvent{
		Path:  []string{"chat-input"},
		Files: []*host.File{a, b},
	})
	assert.Len(t, files, 2)

	// An exact copy of an already-seen payload is still collapsed.
	dup := &host.File{Name: "copy.png", MIME: "image/png", Data: append([]byte{}, a.Data...)}
	files = ExtractImages(&host.PasteEvent{
		Path:  []string{"chat-input"},
		Files: []*host.File{a, dup},
	})
	assert.Len(t, files, 1)
}

func TestExtractImages_SkipsEmptyAndNonImage(t *testing.T) {
	ev := &host.PasteEvent{
		Files: []*host.File{
			{Name: "empty.png", MIME: "image/png"},
			{Name: "notes.txt", MIME: "text/plain", Data: []byte("text")},
			pngFile("a.png"),
		},
	}
	files := ExtractImages(ev)
	require.Len(t, files, 1)
	assert.Equal(t, "a.png", files[0].Name)
}

func TestInterceptor_RejectionsBatchedIntoOneWarning(t *testing.T) {
	ic, store, input, notifier := newTestInterceptor(t)

	big := &host.File{Name: "big.png", MIME: "image/png", Data: make([]byte, 11*1024*1024)}
	ic.Enqueue([]*host.File{pngFile("ok.png"), big}, input.SetText)

	assert.Equal(t, 1, store.Len())
	require.Len(t, notifier.warnings, 1)
	assert.Contains(t, notifier.warnings[0], "big.png")
	assert.Contains(t, notifier.warnings[0], "size limit")
}

func TestInterceptor_FullQueueRejectsWholePaste(t *testing.T) {
	ic, store, input, notifier := newTestInterceptor(t)

	ic.Enqueue([]*host.File{
		pngFile("1.png"), pngFile("2.png"), pngFile("3.png"), pngFile("4.png"),
	}, input.SetText)
	require.Equal(t, 4, store.Len())
	textBefore := input.text

	ic.Enqueue([]*host.File{pngFile("5.png")}, input.SetText)

	assert.Equal(t, 4, store.Len())
	assert.Equal(t, textBefore, input.text, "a fully rejected paste must not touch the text")
	require.Len(t, notifier.warnings, 1)
	assert.Contains(t, notifier.warnings[0], "limit reached")
}

func TestInterceptor_PartialAcceptAcrossCapacity(t *testing.T) {
	ic, store, input, notifier := newTestInterceptor(t)

	ic.Enqueue([]*host.File{pngFile("1.png"), pngFile("2.png"), pngFile("3.png")}, input.SetText)
	ic.Enqueue([]*host.File{pngFile("4.png"), pngFile("5.png")}, input.SetText)

	assert.Equal(t, 4, store.Len())
	require.Len(t, notifier.warnings, 1)
	assert.Contains(t, notifier.warnings[0], "5.png")

	// Only accepted images get placeholders.
	assert.Equal(t, 4, strings.Count(input.text, "pending://image/"))
}

func TestInterceptor_Registration(t *testing.T) {
	ic, store, _, _ := newTestInterceptor(t)
	reg := ic.Registration()

	assert.Equal(t, "pending-images", reg.Name)

	t.Run("match requires an image payload", func(t *testing.T) {
		assert.False(t, reg.Match(&host.PasteEvent{Items: []host.ClipboardItem{stringItem{}}}))
		assert.True(t, reg.Match(&host.PasteEvent{Files: []*host.File{pngFile("a.png")}}))
	})

	t.Run("handle queues through the paste context", func(t *testing.T) {
		ctx := &applyRecorder{}
		reg.Handle([]*host.File{pngFile("a.png")}, ctx)
		assert.Equal(t, 1, store.Len())
		assert.Contains(t, ctx.applied, "pending://image/")
	})
}

type applyRecorder struct {
	applied string
}

func (a *applyRecorder) ApplyText(text string) { a.applied = text }
