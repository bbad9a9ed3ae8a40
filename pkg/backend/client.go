package backend

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

// multipartField is the field name the generation backend reads every
// uploaded part from. It is identical for all files.
const multipartField = "files"

// File is one PDF forwarded to the generation backend.
type File struct {
	Name    string
	Content []byte
}

// StatusError is a non-2xx answer from the backend. Detail carries the
// backend's structured error message when it sent one; callers collapse it
// to a generic user-facing message and keep Detail for logs only.
type StatusError struct {
	Code   int
	Status string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error: status %d (%s): %s", e.Code, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error: status %d (%s)", e.Code, e.Status)
}

// Client talks to the cheat sheet generation backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate posts the selected files as one multipart request and returns the
// generated PDF bytes. A bearer token is attached when provided; the backend
// treats it as optional.
func (c *Client) Generate(ctx context.Context, files []File, bearer string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile(multipartField, f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	url := c.BaseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: http.StatusText(resp.StatusCode),
			Detail: parseErrorDetail(bodyBytes),
		}
	}

	return bodyBytes, nil
}

// Health mirrors the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	return nil
}

func parseErrorDetail(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		return errResp.Error
	}
	return ""
}
