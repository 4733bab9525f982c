// Package client holds the HTTP clients for the upstream backends.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	invokePathFormat       = "/model/%s/invoke"
	invokeStreamPathFormat = "/model/%s/invoke-with-response-stream"

	eventStreamContentType = "application/vnd.amazon.eventstream"
)

// UpstreamStatusError is a non-2xx answer from the backend, carried with the
// response body so the handler can pass the detail on.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// BedrockClient calls the Bedrock runtime invoke API. The embedded
// http.Client carries no Timeout: a streaming response legitimately stays
// open for minutes, and per-request deadlines come in through the context.
type BedrockClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewBedrockClient creates a client for the given runtime endpoint.
func NewBedrockClient(baseURL, token string) *BedrockClient {
	return &BedrockClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

// InvokeStream opens the streaming invoke endpoint and hands back the raw
// response body. The caller owns closing it; canceling ctx aborts the
// in-flight read and releases the connection.
func (c *BedrockClient) InvokeStream(ctx context.Context, modelID string, body []byte) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, fmt.Sprintf(invokeStreamPathFormat, url.PathEscape(modelID)), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", eventStreamContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bedrock streaming invoke: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}
	return resp.Body, nil
}

// Invoke calls the non-streaming invoke endpoint and returns the JSON body.
func (c *BedrockClient) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	req, err := c.newRequest(ctx, fmt.Sprintf(invokePathFormat, url.PathEscape(modelID)), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bedrock response: %w", err)
	}
	return data, nil
}

func (c *BedrockClient) newRequest(ctx context.Context, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build bedrock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	return &UpstreamStatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(data)),
	}
}
