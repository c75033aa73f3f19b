// Package markup generates, recognizes and replaces placeholder markup for
// pending images inside the message text. Placeholders carry an opaque
// correlation token; the visual form is produced by the host's registered
// "image" encoder and is never assumed fixed.
package markup

import (
	"regexp"
	"strings"

	"github.com/pastekit/pastekit/pkg/host"
)

// placeholderScheme prefixes the correlation token. The token is never
// dereferenced.
const placeholderScheme = "pending://image/"

// encoderKind is the markup encoder used for both placeholders and final
// image references.
const encoderKind = "image"

// PlaceholderToken returns the opaque token correlating markup with a
// queued image.
func PlaceholderToken(id string) string {
	return placeholderScheme + id
}

var newlineRuns = regexp.MustCompile(`\n{3,}`)

// Upload is one completed upload to substitute into the message.
type Upload struct {
	ID     string
	URL    string
	Width  int
	Height int
}

// Synchronizer keeps the message text in step with the pending queue.
type Synchronizer struct {
	registry host.MarkupRegistry
	matchers []Matcher
}

// NewSynchronizer creates a synchronizer bound to the host's encoder
// registry, recognizing the default placeholder encodings.
func NewSynchronizer(registry host.MarkupRegistry) *Synchronizer {
	return &Synchronizer{
		registry: registry,
		matchers: defaultMatchers(),
	}
}

// RegisterMatcher adds recognition of another textual encoding.
func (s *Synchronizer) RegisterMatcher(m Matcher) {
	s.matchers = append(s.matchers, m)
}

// BuildPlaceholder renders placeholder markup for a queued image via the
// host's image encoder with empty metadata. Without an image encoder the
// bare token is used.
func (s *Synchronizer) BuildPlaceholder(id string) string {
	enc, ok := s.registry.Encoder(encoderKind)
	if !ok {
		return PlaceholderToken(id)
	}
	return enc(PlaceholderToken(id), host.ImageMeta{})
}

// Append renders a placeholder per id, joined by single newlines, and
// appends the block to message. A separating newline is inserted first only
// when message is non-empty and does not already end with one.
func (s *Synchronizer) Append(message string, ids []string) string {
	if len(ids) == 0 {
		return message
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, s.BuildPlaceholder(id))
	}
	block := strings.Join(parts, "\n")

	switch {
	case message == "":
		return block
	case strings.HasSuffix(message, "\n"):
		return message + block
	default:
		return message + "\n" + block
	}
}

// Strip removes every occurrence of the placeholder for id across all known
// encodings, collapses runs of three or more newlines to exactly two, and
// trims surrounding whitespace.
func (s *Synchronizer) Strip(message, id string) string {
	token := PlaceholderToken(id)
	for _, m := range s.matchers {
		message = m.Pattern(token).ReplaceAllLiteralString(message, "")
	}
	message = newlineRuns.ReplaceAllString(message, "\n\n")
	return strings.TrimSpace(message)
}

// Replace substitutes final markup for each upload's placeholder, in upload
// order. When the placeholder is absent from the accumulating message (the
// user stripped it while the item was mid-upload) the final markup is
// appended instead, so an uploaded reference is never silently lost.
func (s *Synchronizer) Replace(message string, uploads []Upload) string {
	for _, u := range uploads {
		final := s.buildFinal(u)
		token := PlaceholderToken(u.ID)

		replaced := false
		for _, m := range s.matchers {
			re := m.Pattern(token)
			if re.MatchString(message) {
				message = re.ReplaceAllLiteralString(message, final)
				replaced = true
			}
		}
		if !replaced {
			switch {
			case message == "":
				message = final
			case strings.HasSuffix(message, "\n"):
				message += final
			default:
				message += "\n" + final
			}
		}
	}
	return message
}

func (s *Synchronizer) buildFinal(u Upload) string {
	enc, ok := s.registry.Encoder(encoderKind)
	if !ok {
		return u.URL
	}
	return enc(u.URL, host.ImageMeta{Width: u.Width, Height: u.Height})
}
