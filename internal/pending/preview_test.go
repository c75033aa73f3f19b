package pending

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreview(t *testing.T) {
	prev, err := NewPreview(encodePNG(t, 400, 300))
	require.NoError(t, err)
	require.NotNil(t, prev)

	_, err = os.Stat(prev.Path())
	require.NoError(t, err, "preview file should exist on disk")

	prev.Release()
	_, err = os.Stat(prev.Path())
	assert.True(t, os.IsNotExist(err), "release should delete the preview file")

	// Release is idempotent.
	prev.Release()
}

func TestNewPreview_UndecodableContent(t *testing.T) {
	_, err := NewPreview([]byte("definitely not an image"))
	assert.Error(t, err)
}
