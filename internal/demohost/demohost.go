// Package demohost is a reference host.Host implementation used by the
// demo binary. It keeps the chat input in memory, encodes image markup
// as markdown, surfaces notifications through the logger, uploads via
// the media client and sends finished messages through the relay hub.
package demohost

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/relay"
	"github.com/pastekit/pastekit/pkg/host"
)

// DemoHost implements host.Host for the demo binary.
type DemoHost struct {
	input    *chatInput
	markup   *markupRegistry
	uploader host.Uploader
	notifier *logNotifier

	mu             sync.RWMutex
	pasteHandlers  []host.PasteHandler
	controls       map[string]func() host.ControlData
	pasteListeners []func(ev *host.PasteEvent)
	keyListeners   []func(ev *host.KeyEvent)

	logger *logger.Logger
}

// New creates a demo host. Sent messages are broadcast on hub under the
// given sender name; uploads go through uploader.
func New(region, sender string, hub *relay.Hub, uploader host.Uploader, log *logger.Logger) *DemoHost {
	return &DemoHost{
		input:    &chatInput{region: region, sender: sender, hub: hub},
		markup:   newMarkupRegistry(),
		uploader: uploader,
		notifier: &logNotifier{logger: log.WithComponent("notifier")},
		controls: make(map[string]func() host.ControlData),
		logger:   log.WithComponent("demohost"),
	}
}

func (h *DemoHost) ChatInput() host.ChatInput { return h.input }
func (h *DemoHost) Markup() host.MarkupRegistry { return h.markup }
func (h *DemoHost) Uploader() host.Uploader { return h.uploader }
func (h *DemoHost) Notifier() host.Notifier { return h.notifier }

func (h *DemoHost) RegisterPasteHandler(ph host.PasteHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pasteHandlers = append(h.pasteHandlers, ph)
	h.logger.Info("paste handler registered", zap.String("name", ph.Name))
}

func (h *DemoHost) RegisterControl(name string, data func() host.ControlData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controls[name] = data
	h.logger.Info("control registered", zap.String("name", name))
}

func (h *DemoHost) AddPasteListener(fn func(ev *host.PasteEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pasteListeners = append(h.pasteListeners, fn)
}

func (h *DemoHost) AddKeyListener(fn func(ev *host.KeyEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keyListeners = append(h.keyListeners, fn)
}

// DispatchPaste delivers a paste event to the capturing listeners,
// honoring propagation control between listeners.
func (h *DemoHost) DispatchPaste(ev *host.PasteEvent) {
	h.mu.RLock()
	listeners := make([]func(ev *host.PasteEvent), len(h.pasteListeners))
	copy(listeners, h.pasteListeners)
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
		if ev.PropagationStopped() {
			return
		}
	}
}

// DispatchKey delivers a key event to the capturing listeners.
func (h *DemoHost) DispatchKey(ev *host.KeyEvent) {
	h.mu.RLock()
	listeners := make([]func(ev *host.KeyEvent), len(h.keyListeners))
	copy(listeners, h.keyListeners)
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
		if ev.PropagationStopped() {
			return
		}
	}
}

// ControlData renders the named control's popover payload, if registered.
func (h *DemoHost) ControlData(name string) (host.ControlData, bool) {
	h.mu.RLock()
	data, ok := h.controls[name]
	h.mu.RUnlock()
	if !ok {
		return host.ControlData{}, false
	}
	return data(), true
}

type chatInput struct {
	region string
	sender string
	hub    *relay.Hub

	mu   sync.RWMutex
	text string
}

func (c *chatInput) Region() string { return c.region }

func (c *chatInput) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text
}

func (c *chatInput) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func (c *chatInput) SendMsg(text string) error {
	c.hub.Broadcast(&relay.ChatMessage{
		Sender: c.sender,
		Text:   text,
		SentAt: time.Now().UTC(),
	})
	return nil
}

type markupRegistry struct {
	encoders map[string]host.EncoderFunc
}

func newMarkupRegistry() *markupRegistry {
	return &markupRegistry{
		encoders: map[string]host.EncoderFunc{
			"image": func(ref string, meta host.ImageMeta) string {
				if meta.Width > 0 && meta.Height > 0 {
					return fmt.Sprintf("![image|%dx%d](%s)", meta.Width, meta.Height, ref)
				}
				return fmt.Sprintf("![image](%s)", ref)
			},
		},
	}
}

func (r *markupRegistry) Encoder(kind string) (host.EncoderFunc, bool) {
	fn, ok := r.encoders[kind]
	return fn, ok
}

type logNotifier struct {
	logger *logger.Logger
}

func (n *logNotifier) Warn(title, description string) {
	n.logger.Warn(title, zap.String("description", description))
}

func (n *logNotifier) Error(title, description string) {
	n.logger.Error(title, zap.String("description", description))
}
