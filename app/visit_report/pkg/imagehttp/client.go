package imagehttp

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images"
)

// maxImageBytes upper bound for one downloaded photo
const maxImageBytes = 20 << 20

// Client downloads uploads from a file service exposing GET {base}/files/{id}
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a file service client, timeout in seconds (30 when 0)
func NewClient(baseURL, apiKey string, timeout int) *Client {
	t := time.Duration(timeout) * time.Second
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: t},
	}
}

// Ensure Client implements images.Source
var _ images.Source = (*Client)(nil)

// Fetch downloads one file by id
func (c *Client) Fetch(ctx context.Context, id string) (*images.Image, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath("files", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", images.ErrNotFound, id)
	case res.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("file service error (status %d): %s", res.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	img := &images.Image{ID: id, Name: id, ContentType: res.Header.Get("Content-Type"), Data: data}
	if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		img.Name = params["filename"]
	}
	if img.ContentType == "" || img.ContentType == "application/octet-stream" {
		img.ContentType = http.DetectContentType(data)
	}
	return img, nil
}
