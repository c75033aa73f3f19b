package pending

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pastekit/pastekit/internal/common/config"
	"github.com/pastekit/pastekit/pkg/host"
)

// Rejection explains why one candidate file was not queued.
type Rejection struct {
	Name   string
	Reason string
}

// Policy applies the type, size and capacity rules when images are proposed
// for enqueue. Rejections are non-fatal and never block acceptance of the
// valid remainder of a batch.
type Policy struct {
	allowed  map[string]struct{}
	maxBytes int64
	capacity int
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg config.PendingConfig) *Policy {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[normalizeMIME(t)] = struct{}{}
	}
	return &Policy{
		allowed:  allowed,
		maxBytes: cfg.MaxBytes,
		capacity: cfg.Capacity,
	}
}

// Screen validates candidates in input order against the whitelist, the
// size ceiling, and the remaining capacity. Capacity slots are consumed
// greedily, so a later file in the same batch can be rejected purely for
// capacity even though it is individually valid.
func (p *Policy) Screen(files []*host.File, currentLen int) ([]*host.File, []Rejection) {
	slots := p.capacity - currentLen

	var accepted []*host.File
	var rejections []Rejection
	for _, f := range files {
		mime := DetectMIME(f)
		if _, ok := p.allowed[mime]; !ok {
			rejections = append(rejections, Rejection{
				Name:   f.Name,
				Reason: fmt.Sprintf("unsupported type %q", mime),
			})
			continue
		}
		if int64(len(f.Data)) > p.maxBytes {
			rejections = append(rejections, Rejection{
				Name:   f.Name,
				Reason: fmt.Sprintf("exceeds the %d MiB size limit", p.maxBytes/(1024*1024)),
			})
			continue
		}
		if slots <= 0 {
			rejections = append(rejections, Rejection{
				Name:   f.Name,
				Reason: "pending image limit reached",
			})
			continue
		}
		slots--
		f.MIME = mime
		accepted = append(accepted, f)
	}
	return accepted, rejections
}

// DetectMIME returns the candidate's declared media type, normalized, or
// sniffs it from the content bytes when no declaration is present.
func DetectMIME(f *host.File) string {
	if f.MIME != "" {
		return normalizeMIME(f.MIME)
	}
	return normalizeMIME(mimetype.Detect(f.Data).String())
}

// IsImage reports whether the candidate carries an image payload of any
// type. The whitelist is applied later by Screen; this is the coarse filter
// used for paste matching.
func IsImage(f *host.File) bool {
	return strings.HasPrefix(DetectMIME(f), "image/")
}

// BatchWarning renders one human-readable line per rejection, for surfacing
// a whole batch as a single warning.
func BatchWarning(rejections []Rejection) string {
	lines := make([]string, 0, len(rejections))
	for _, r := range rejections {
		name := r.Name
		if name == "" {
			name = "pasted image"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, r.Reason))
	}
	return strings.Join(lines, "\n")
}

func normalizeMIME(m string) string {
	if i := strings.Index(m, ";"); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}
