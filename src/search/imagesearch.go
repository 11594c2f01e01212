package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const uploadTimeout = 15 * time.Second

// ImageUploader submits a captured region to a reverse-image-search
// endpoint and reports the results-page URL to open.
type ImageUploader interface {
	Upload(ctx context.Context, png []byte) (string, error)
}

// HTTPUploader posts the PNG as multipart form data. The endpoint is
// expected to redirect to (or land on) a results page; the final request
// URL after redirects is what the browser should open.
type HTTPUploader struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPUploader builds an uploader for the given endpoint. An empty
// endpoint disables direct upload; the router falls back to the engine's
// landing page.
func NewHTTPUploader(endpoint string) *HTTPUploader {
	return &HTTPUploader{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: uploadTimeout},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, png []byte) (string, error) {
	if u.Endpoint == "" {
		return "", fmt.Errorf("no image search endpoint configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("encoded_image", "region.png")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("image search endpoint returned status %d", resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}
