package pending

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/disintegration/imaging"

	// Register webp decoding for previews of pasted webp images.
	_ "golang.org/x/image/webp"
)

const previewSize = 200

// Preview is a display-only thumbnail rendered from an image's content and
// held as a temporary file. Release removes the file and is idempotent.
type Preview struct {
	path    string
	release sync.Once
}

// NewPreview decodes content and writes a thumbnail to a temporary file.
func NewPreview(content []byte) (*Preview, error) {
	src, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for preview: %w", err)
	}

	thumb := imaging.Thumbnail(src, previewSize, previewSize, imaging.Lanczos)

	f, err := os.CreateTemp("", "pastekit-preview-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview file: %w", err)
	}
	if err := imaging.Encode(f, thumb, imaging.PNG); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	return &Preview{path: f.Name()}, nil
}

// Path returns the location of the thumbnail file.
func (p *Preview) Path() string {
	return p.path
}

// Release removes the thumbnail file. Safe to call more than once; only the
// first call takes effect.
func (p *Preview) Release() {
	p.release.Do(func() {
		_ = os.Remove(p.path)
	})
}
