// Package paste intercepts clipboard paste events scoped to the chat input
// and routes image payloads through validation into the pending queue.
package paste

import (
	"crypto/sha256"

	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/markup"
	"github.com/pastekit/pastekit/internal/pending"
	"github.com/pastekit/pastekit/pkg/host"
)

// Interceptor captures image pastes through two integration points: a
// capturing-phase document listener and the host's registered paste-handler
// contract. Both share identical validation and enqueue behavior.
type Interceptor struct {
	store    *pending.Store
	policy   *pending.Policy
	markup   *markup.Synchronizer
	input    host.ChatInput
	notifier host.Notifier
	logger   *logger.Logger
}

// NewInterceptor wires the interceptor to the pending queue and the host's
// chat input.
func NewInterceptor(store *pending.Store, policy *pending.Policy, sync *markup.Synchronizer, input host.ChatInput, notifier host.Notifier, log *logger.Logger) *Interceptor {
	return &Interceptor{
		store:    store,
		policy:   policy,
		markup:   sync,
		input:    input,
		notifier: notifier,
		logger:   log.WithComponent("paste-interceptor"),
	}
}

// HandleDocumentPaste is the capturing-phase listener for paste events
// anywhere in the document. It acts only when the event originates inside
// the chat-input region and the clipboard carries at least one image; in
// that case the default paste action is suppressed and propagation stopped,
// so an image paste never also triggers a text paste.
func (i *Interceptor) HandleDocumentPaste(ev *host.PasteEvent) {
	if !ev.WithinRegion(i.input.Region()) {
		return
	}
	files := ExtractImages(ev)
	if len(files) == 0 {
		return
	}

	ev.PreventDefault()
	ev.StopPropagation()

	i.Enqueue(files, i.input.SetText)
}

// Registration returns the paste-handler contract exposed to the host.
func (i *Interceptor) Registration() host.PasteHandler {
	return host.PasteHandler{
		Name:  "pending-images",
		Label: "Attach pasted images",
		Match: func(ev *host.PasteEvent) bool {
			return len(ExtractImages(ev)) > 0
		},
		Handle: func(files []*host.File, ctx host.PasteContext) {
			candidates := make([]*host.File, 0, len(files))
			for _, f := range files {
				if f != nil && len(f.Data) > 0 && pending.IsImage(f) {
					candidates = append(candidates, f)
				}
			}
			i.Enqueue(candidates, ctx.ApplyText)
		},
	}
}

// ExtractImages pulls candidate payloads from both the direct file list and
// the generic clipboard items, deduplicates them, and filters to image
// types. Deduplication is by content digest: the file list and the generic
// items often carry the same payload twice, while distinct images may share
// a name (or have none at all).
func ExtractImages(ev *host.PasteEvent) []*host.File {
	seen := make(map[[sha256.Size]byte]bool)
	var out []*host.File

	add := func(f *host.File) {
		if f == nil || len(f.Data) == 0 || !pending.IsImage(f) {
			return
		}
		key := sha256.Sum256(f.Data)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, f)
	}

	for _, f := range ev.Files {
		add(f)
	}
	for _, item := range ev.Items {
		if f, ok := item.AsFile(); ok {
			add(f)
		}
	}
	return out
}

// Enqueue validates candidates, queues the accepted ones, appends their
// placeholder markup via applyText, and surfaces all rejections as one
// batched warning. Shared by both integration points.
func (i *Interceptor) Enqueue(files []*host.File, applyText func(string)) {
	accepted, rejections := i.policy.Screen(files, i.store.Len())

	if len(accepted) > 0 {
		images := make([]*pending.Image, 0, len(accepted))
		for _, f := range accepted {
			img := pending.NewImage(f.Name, f.MIME, f.Data)
			prev, err := pending.NewPreview(f.Data)
			if err != nil {
				// The image is still attachable without a thumbnail.
				i.logger.Warn("preview generation failed",
					zap.String("name", f.Name),
					zap.Error(err))
			} else {
				img.Preview = prev
			}
			images = append(images, img)
		}

		result := i.store.Add(images)

		// The store re-checks capacity under its own lock; anything it
		// turned away is reported like any other rejection.
		for _, img := range images[len(result.Accepted):] {
			if img.Preview != nil {
				img.Preview.Release()
			}
			rejections = append(rejections, pending.Rejection{
				Name:   img.Name,
				Reason: "pending image limit reached",
			})
		}

		if len(result.Accepted) > 0 {
			ids := make([]string, 0, len(result.Accepted))
			for _, img := range result.Accepted {
				ids = append(ids, img.ID)
			}
			applyText(i.markup.Append(i.input.Text(), ids))
		}
	}

	if len(rejections) > 0 {
		i.notifier.Warn("Some images were not attached", pending.BatchWarning(rejections))
	}
}
