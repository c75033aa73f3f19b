// Package mediaclient implements the host upload contract against the
// reference media service's HTTP API.
package mediaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pastekit/pastekit/pkg/host"
)

// Client uploads image bytes to the media service.
type Client struct {
	baseURL string
	httpc   *http.Client
}

var _ host.Uploader = (*Client)(nil)

// New creates a client for the media service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type uploadResponse struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Upload posts content to the media service and returns the stored
// media reference.
func (c *Client) Upload(ctx context.Context, content []byte, opts host.UploadOptions) (*host.UploadResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/media?usage=%s", c.baseURL, url.QueryEscape(opts.Usage))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimetype.Detect(content).String())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("upload rejected: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &host.UploadResult{
		ID:   out.ID,
		URL:  out.URL,
		MIME: out.MIME,
		Size: out.Size,
	}, nil
}
