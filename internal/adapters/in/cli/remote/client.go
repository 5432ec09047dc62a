// Package remote provides an HTTP client for the gatekeeper REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
)

// Retry settings for idempotent requests. Variables so tests can shorten them.
var (
	retryMaxAttempts = 3
	retryBaseDelay   = 500 * time.Millisecond
)

// ErrUploadFailed is returned when the server answers an upload with an
// error payload.
var ErrUploadFailed = errors.New("upload failed")

// Client talks to a gatekeeper server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// NewClient creates a new client for baseURL, e.g. http://127.0.0.1:5000.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. Uploads onboard synchronously,
// so this bounds the whole onboarding of a package.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// get performs a GET, retrying on transport errors and 5xx answers.
func (c *Client) get(ctx context.Context, path string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		if attempt > 1 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-2))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = parseResponse(resp, nil)
			continue
		}
		return parseResponse(resp, target)
	}
	return lastErr
}

func (c *Client) postJSON(ctx context.Context, path string, body, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return parseResponse(resp, target)
}

// parseResponse decodes a JSON answer into target, or turns an error status
// into an error.
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		var errResp dto.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: errResp.Error}
		}
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// StatusError is an error answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

// UploadPackage uploads the package file at path. The server onboards it
// before answering.
func (c *Client) UploadPackage(ctx context.Context, path string) (*dto.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/packages", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	var result dto.UploadResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return &result, fmt.Errorf("%w: %s", ErrUploadFailed, *result.Error)
	}
	return &result, nil
}

// ListPackages returns the service UUIDs known to the server.
func (c *Client) ListPackages(ctx context.Context) ([]string, error) {
	var result dto.PackageListResponse
	if err := c.get(ctx, "/api/packages", &result); err != nil {
		return nil, err
	}
	return result.ServiceUUIDList, nil
}

// GetPackage returns the onboarding detail of one service.
func (c *Client) GetPackage(ctx context.Context, serviceUUID string) (*dto.PackageDetail, error) {
	var result dto.PackageDetail
	if err := c.get(ctx, "/api/packages/"+serviceUUID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PackageHistory returns the onboarding history.
func (c *Client) PackageHistory(ctx context.Context) ([]dto.PackageRecord, error) {
	var result dto.PackageHistoryResponse
	if err := c.get(ctx, "/api/packages/history", &result); err != nil {
		return nil, err
	}
	return result.Packages, nil
}

// Instantiate requests an instance of an onboarded service.
func (c *Client) Instantiate(ctx context.Context, serviceUUID string) (string, error) {
	var result dto.InstantiationResponse
	err := c.postJSON(ctx, "/api/instantiations", dto.InstantiationRequest{ServiceUUID: serviceUUID}, &result)
	if err != nil {
		return "", err
	}
	return result.ServiceInstanceUUID, nil
}

// ListInstances returns the instance UUIDs known to the server.
func (c *Client) ListInstances(ctx context.Context) ([]string, error) {
	var result dto.InstanceListResponse
	if err := c.get(ctx, "/api/instantiations", &result); err != nil {
		return nil, err
	}
	return result.ServiceInstanceUUIDList, nil
}

// Health checks that the server answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	var result dto.HealthResponse
	if err := c.get(ctx, "/healthz", &result); err != nil {
		return err
	}
	if result.Status != "ok" {
		return fmt.Errorf("server reports status %q", result.Status)
	}
	return nil
}
