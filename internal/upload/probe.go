package upload

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ProbeDimensions reads the pixel dimensions of an encoded image without
// decoding the full bitmap.
func ProbeDimensions(content []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to probe image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
