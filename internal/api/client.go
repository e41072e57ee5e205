// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/config"
)

// TokenSource supplies the access token attached to outgoing requests
type TokenSource interface {
	AccessToken() string
}

// Client is the HTTP transport shared by all stores. Every remote call goes
// through Do: the access token and a request id are attached on the way out,
// and error responses are decoded into a structured *Error on the way back.
// No request is ever retried automatically; failures are reported to the
// caller synchronously.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *logrus.Logger
	tokens         TokenSource
	onUnauthorized func()
}

// NewClient creates an API client from configuration
func NewClient(cfg *config.Config, logger *logrus.Logger, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.API.Timeout,
		},
		logger: logger,
		tokens: tokens,
	}
}

// SetUnauthorizedHandler registers a callback invoked whenever the backend
// answers 401. The session store uses it to clear stored tokens.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// Do issues a JSON request and decodes the response body into out.
// body may be nil for requests without a payload; out may be nil when the
// response body is irrelevant.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	return c.send(ctx, method, path, query, reqBody, "application/json", out)
}

// DoForm issues a multipart/form-data request, used by the admin book
// endpoints which accept an optional cover image next to the text fields.
func (c *Client) DoForm(ctx context.Context, method, path string, fields map[string]string, fileField, fileName string, file io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("failed to copy form file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	return c.send(ctx, method, path, nil, &buf, writer.FormDataContentType(), out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	// Attach the bearer token when signed in
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     method,
			"path":       path,
			"error":      err.Error(),
		}).Warn("API request failed")
		return fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency":     time.Since(start),
	}).Debug("API request completed")

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
		}
	}
	return nil
}

// errorEnvelope mirrors the backend's error body. details is either a plain
// string or a list of entries keyed by context.key; both are flattened into
// []FieldError so nothing downstream depends on this shape.
type errorEnvelope struct {
	Status  string          `json:"status"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type errorDetail struct {
	Message string `json:"message"`
	Context struct {
		Key string `json:"key"`
	} `json:"context"`
}

func decodeError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}

	apiErr.Message = envelope.Message
	if apiErr.Message == "" {
		apiErr.Message = envelope.Error
	}

	if len(envelope.Details) > 0 {
		var plain string
		if err := json.Unmarshal(envelope.Details, &plain); err == nil {
			if apiErr.Message == "" {
				apiErr.Message = plain
			} else {
				apiErr.Details = []FieldError{{Message: plain}}
			}
		} else {
			var entries []errorDetail
			if err := json.Unmarshal(envelope.Details, &entries); err == nil {
				for _, entry := range entries {
					apiErr.Details = append(apiErr.Details, FieldError{
						Field:   entry.Context.Key,
						Message: entry.Message,
					})
				}
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
