// Package pastekit wires the pending-image plugin into a chat host: paste
// interception, the pending queue with previews, placeholder markup
// synchronization, sequential upload on send, and the send gate.
package pastekit

import (
	"context"

	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/config"
	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/events"
	"github.com/pastekit/pastekit/internal/events/bus"
	"github.com/pastekit/pastekit/internal/markup"
	"github.com/pastekit/pastekit/internal/paste"
	"github.com/pastekit/pastekit/internal/pending"
	"github.com/pastekit/pastekit/internal/send"
	"github.com/pastekit/pastekit/internal/upload"
	"github.com/pastekit/pastekit/pkg/host"
)

// Plugin owns the pending-image lifecycle for one chat input.
type Plugin struct {
	cfg         *config.Config
	host        host.Host
	store       *pending.Store
	policy      *pending.Policy
	markup      *markup.Synchronizer
	interceptor *paste.Interceptor
	sequencer   *upload.Sequencer
	gate        *send.Gate
	bus         bus.EventBus
	unsubscribe func()
	querySub    bus.Subscription
	logger      *logger.Logger
}

// New builds the plugin against a host. eventBus may be nil; when present,
// queue changes are bridged onto it for out-of-process observers.
func New(cfg *config.Config, h host.Host, eventBus bus.EventBus, log *logger.Logger) *Plugin {
	store := pending.NewStore(cfg.Pending.Capacity, log)
	policy := pending.NewPolicy(cfg.Pending)
	sync := markup.NewSynchronizer(h.Markup())
	interceptor := paste.NewInterceptor(store, policy, sync, h.ChatInput(), h.Notifier(), log)
	sequencer := upload.NewSequencer(store, h.Uploader(), eventBus, log)
	gate := send.NewGate(store, sequencer, sync, h.ChatInput(), h.Notifier(), eventBus, log)

	return &Plugin{
		cfg:         cfg,
		host:        h,
		store:       store,
		policy:      policy,
		markup:      sync,
		interceptor: interceptor,
		sequencer:   sequencer,
		gate:        gate,
		bus:         eventBus,
		logger:      log.WithComponent("pastekit"),
	}
}

// Attach registers the plugin's listeners, paste handler and chat-input
// control with the host.
func (p *Plugin) Attach(ctx context.Context) {
	p.host.AddPasteListener(p.interceptor.HandleDocumentPaste)
	p.host.AddKeyListener(p.gate.HandleKey)
	p.host.RegisterPasteHandler(p.interceptor.Registration())
	p.host.RegisterControl("pending-images", p.controlData)

	if p.bus != nil {
		p.unsubscribe = p.store.Subscribe(func(images []*pending.Image) {
			event := bus.NewEvent(events.PendingChanged, "pastekit", map[string]interface{}{
				"queue_length": len(images),
			})
			if err := p.bus.Publish(ctx, events.SubjectPending, event); err != nil {
				p.logger.Warn("failed to publish queue change", zap.Error(err))
			}
		})

		sub, err := p.bus.QueueSubscribe(events.SubjectPendingQuery, "pastekit", p.answerQueueQuery)
		if err != nil {
			p.logger.Warn("failed to subscribe to queue-state queries", zap.Error(err))
		} else {
			p.querySub = sub
		}
	}

	p.logger.Info("plugin attached",
		zap.Int("capacity", p.cfg.Pending.Capacity),
		zap.String("input_region", p.cfg.Input.Region))
}

// answerQueueQuery serves queue-state requests from out-of-process
// observers. The reply subject rides along in the request's payload.
func (p *Plugin) answerQueueQuery(ctx context.Context, event *bus.Event) error {
	reply, _ := event.Data["_reply"].(string)
	if reply == "" {
		return nil
	}
	state := bus.NewEvent(events.PendingState, "pastekit", map[string]interface{}{
		"queue_length": p.store.Len(),
		"capacity":     p.store.Capacity(),
	})
	return p.bus.Publish(ctx, reply, state)
}

// Detach drops the event-bus bridge. Host-side registrations are owned by
// the host.
func (p *Plugin) Detach() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	if p.querySub != nil {
		if err := p.querySub.Unsubscribe(); err != nil {
			p.logger.Warn("failed to drop queue-state subscription", zap.Error(err))
		}
		p.querySub = nil
	}
}

// Store exposes the pending queue, e.g. for a preview list observer.
func (p *Plugin) Store() *pending.Store {
	return p.store
}

// Send triggers a send attempt, equivalent to activating the send control.
func (p *Plugin) Send(ctx context.Context) {
	p.gate.Trigger(ctx)
}

func (p *Plugin) controlData() host.ControlData {
	return host.ControlData{
		Images: p.store.Views(),
		Send: func() {
			p.gate.Trigger(context.Background())
		},
		Remove: p.removeImage,
	}
}

// removeImage removes a queued image and strips its placeholder markup from
// the message text. Removal of an uploading item is refused; the control is
// rendered inert in that state, so this is a backstop.
func (p *Plugin) removeImage(id string) {
	if err := p.store.Remove(id); err != nil {
		p.logger.Warn("removal refused",
			zap.String("image_id", id),
			zap.Error(err))
		return
	}
	in := p.host.ChatInput()
	in.SetText(p.markup.Strip(in.Text(), id))
}
