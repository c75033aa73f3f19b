// Package send gates the user's send intent behind the upload sequence and
// delegates the finished text to the host sender.
package send

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/events"
	"github.com/pastekit/pastekit/internal/events/bus"
	"github.com/pastekit/pastekit/internal/markup"
	"github.com/pastekit/pastekit/internal/pending"
	"github.com/pastekit/pastekit/internal/upload"
	"github.com/pastekit/pastekit/pkg/host"
)

// uploadRunner runs the pending queue through upload and reports the final
// asset locations. Satisfied by *upload.Sequencer.
type uploadRunner interface {
	Run(ctx context.Context) ([]upload.Result, error)
}

// Gate intercepts send intent (Enter in the chat input, or the designated
// send control), runs the upload sequence, substitutes final markup and
// hands the text to the host sender.
type Gate struct {
	store     *pending.Store
	sequencer uploadRunner
	markup    *markup.Synchronizer
	input     host.ChatInput
	notifier  host.Notifier
	bus       bus.EventBus
	logger    *logger.Logger
}

// NewGate wires the gate to the pending queue, sequencer and host input.
// eventBus may be nil; sent messages are then not announced on the bus.
func NewGate(store *pending.Store, seq uploadRunner, sync *markup.Synchronizer, input host.ChatInput, notifier host.Notifier, eventBus bus.EventBus, log *logger.Logger) *Gate {
	return &Gate{
		store:     store,
		sequencer: seq,
		markup:    sync,
		input:     input,
		notifier:  notifier,
		bus:       eventBus,
		logger:    log.WithComponent("send-gate"),
	}
}

// HandleKey is the capturing-phase key listener. Enter with no modifiers
// while focus is within the chat input triggers a send when the queue is
// non-empty; with an empty queue the host's default Enter handling is left
// untouched.
func (g *Gate) HandleKey(ev *host.KeyEvent) {
	if ev.Key != "Enter" || ev.HasModifier() {
		return
	}
	if !ev.WithinRegion(g.input.Region()) {
		return
	}
	if g.store.Len() == 0 {
		return
	}

	ev.PreventDefault()
	ev.StopPropagation()

	g.Trigger(context.Background())
}

// Trigger runs one send attempt. Used by the key listener and as the send
// control's callback. With an empty queue it is a no-op.
func (g *Gate) Trigger(ctx context.Context) {
	if g.store.Len() == 0 {
		return
	}

	results, err := g.sequencer.Run(ctx)
	if err != nil {
		if errors.Is(err, upload.ErrSendInProgress) {
			// Coalesced with the trigger that is already running.
			return
		}
		// The queue and message text are intact for a retry of the
		// whole send.
		g.notifier.Error("Failed to upload images", err.Error())
		return
	}

	uploads := make([]markup.Upload, 0, len(results))
	for _, r := range results {
		uploads = append(uploads, markup.Upload{
			ID:     r.ID,
			URL:    r.URL,
			Width:  r.Width,
			Height: r.Height,
		})
	}

	final := g.markup.Replace(g.input.Text(), uploads)
	if strings.TrimSpace(final) == "" {
		g.notifier.Warn("Message is empty", "Cannot send a blank message.")
		return
	}

	if err := g.input.SendMsg(final); err != nil {
		g.logger.Error("send delegate failed", zap.Error(err))
		g.notifier.Error("Failed to send message", err.Error())
		return
	}

	g.input.SetText("")
	g.store.Clear()
	g.logger.Info("message sent", zap.Int("images", len(results)))

	g.publish(ctx, events.SubjectSends, events.MessageSent, map[string]interface{}{
		"images": len(results),
		"length": len(final),
	})
	g.publish(ctx, events.SubjectPending, events.PendingFlushed, map[string]interface{}{
		"images": len(results),
	})
}

func (g *Gate) publish(ctx context.Context, subject, eventType string, data map[string]interface{}) {
	if g.bus == nil {
		return
	}
	if err := g.bus.Publish(ctx, subject, bus.NewEvent(eventType, "pastekit", data)); err != nil {
		g.logger.Warn("failed to publish event",
			zap.String("subject", subject),
			zap.String("type", eventType),
			zap.Error(err))
	}
}
