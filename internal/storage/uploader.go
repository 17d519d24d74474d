package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Uploader stores an image with an external host and returns its public URL.
// The host owns all image processing; this service only keeps the URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
}

// HTTPUploader posts images to an image-hosting endpoint as multipart form
// data and reads the public URL from the JSON response.
type HTTPUploader struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewHTTPUploader creates an uploader for the given endpoint.
func NewHTTPUploader(endpoint, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload submits the file under publicID, overwriting any previous upload
// with the same ID.
func (u *HTTPUploader) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", publicID)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if err := writer.WriteField("public_id", publicID); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if err := writer.WriteField("overwrite", "true"); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload avatar: unexpected status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}
	return parsed.SecureURL, nil
}
