// Package host defines the contracts PasteKit expects from the embedding
// chat application. The plugin core depends only on these interfaces; the
// host wires its own chat input, notification surface, markup encoders and
// upload transport behind them.
package host

import "context"

// File is one candidate payload extracted from a paste event.
type File struct {
	Name string
	MIME string
	Data []byte
}

// ClipboardItem is a generic clipboard entry. Items that carry a file
// payload report it through AsFile.
type ClipboardItem interface {
	// Kind returns the item kind, e.g. "file" or "string".
	Kind() string

	// MIME returns the declared MIME type of the item.
	MIME() string

	// AsFile returns the file payload, if the item carries one.
	AsFile() (*File, bool)
}

// ImageMeta carries optional image dimensions for markup encoding.
// The zero value means "no metadata" (used for placeholders).
type ImageMeta struct {
	Width  int
	Height int
}

// EncoderFunc turns an image reference and metadata into display markup,
// e.g. markdown image syntax or a bbcode image tag. The visual form is
// host-defined and must not be assumed fixed by the plugin.
type EncoderFunc func(ref string, meta ImageMeta) string

// MarkupRegistry exposes the host's registered markup encoders.
// A conforming host provides at least an "image" encoder.
type MarkupRegistry interface {
	Encoder(kind string) (EncoderFunc, bool)
}

// UploadOptions carries upload metadata.
type UploadOptions struct {
	Usage string
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	ID   string
	URL  string
	MIME string
	Size int64
}

// Uploader is the host's file-upload transport. Failures propagate as
// returned errors and abort the current send sequence.
type Uploader interface {
	Upload(ctx context.Context, content []byte, opts UploadOptions) (*UploadResult, error)
}

// ChatInput is the host's chat-input context. The plugin never keeps its
// own copy of the message text beyond transient reads.
type ChatInput interface {
	// Region identifies the input's event region, used to scope paste
	// and key interception.
	Region() string

	Text() string
	SetText(text string)

	// SendMsg performs the actual transport send of the finished text.
	SendMsg(text string) error
}

// Notifier is the host's notification surface.
type Notifier interface {
	Warn(title, description string)
	Error(title, description string)
}

// PasteContext is handed to a registered paste handler and exposes a way
// to apply a new message text.
type PasteContext interface {
	ApplyText(text string)
}

// PasteHandler is the registered paste-handler contract. Match reports
// whether the clipboard payload contains at least one image; Handle
// receives the extracted files.
type PasteHandler struct {
	Name   string
	Label  string
	Match  func(ev *PasteEvent) bool
	Handle func(files []*File, ctx PasteContext)
}

// ImageView is a read-only projection of one pending image, supplied to
// the host's popover rendering.
type ImageView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MIME        string `json:"mime"`
	Status      string `json:"status"`
	ErrorDetail string `json:"error_detail,omitempty"`
	PreviewPath string `json:"preview_path,omitempty"`

	// Removable is false while the image is uploading; the host must
	// render the removal control inert in that state.
	Removable bool `json:"removable"`
}

// ControlData is what the plugin supplies for the chat-input control's
// popover surface. Rendering is entirely host-side.
type ControlData struct {
	Images []ImageView
	Send   func()
	Remove func(id string)
}

// Host aggregates everything the plugin attaches to.
type Host interface {
	ChatInput() ChatInput
	Markup() MarkupRegistry
	Uploader() Uploader
	Notifier() Notifier

	// RegisterPasteHandler registers the plugin's paste-handler contract.
	RegisterPasteHandler(h PasteHandler)

	// RegisterControl registers a chat-input control; the host calls data
	// whenever it renders the control's popover.
	RegisterControl(name string, data func() ControlData)

	// AddPasteListener adds a capturing-phase listener for paste events
	// anywhere in the document.
	AddPasteListener(fn func(ev *PasteEvent))

	// AddKeyListener adds a capturing-phase listener for key events.
	AddKeyListener(fn func(ev *KeyEvent))
}
