// Package postmark is a minimal client for the Postmark REST API,
// covering batch sending and webhook signature checks.
package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BatchMax is the most messages the batch endpoint accepts per call.
const BatchMax = 500

// Message is one email in a batch request
type Message struct {
	From          string            `json:"From"`
	To            string            `json:"To"`
	ReplyTo       string            `json:"ReplyTo,omitempty"`
	Subject       string            `json:"Subject"`
	HTMLBody      string            `json:"HtmlBody,omitempty"`
	TextBody      string            `json:"TextBody,omitempty"`
	TrackOpens    bool              `json:"TrackOpens"`
	TrackLinks    string            `json:"TrackLinks,omitempty"`
	MessageStream string            `json:"MessageStream,omitempty"`
	Metadata      map[string]string `json:"Metadata,omitempty"`
}

// MessageResult is the per-message outcome of a batch call. ErrorCode 0
// means the provider accepted the message.
type MessageResult struct {
	To          string    `json:"To"`
	SubmittedAt time.Time `json:"SubmittedAt"`
	MessageID   string    `json:"MessageID"`
	ErrorCode   int       `json:"ErrorCode"`
	Message     string    `json:"Message"`
}

// Succeeded reports whether the provider accepted this message
func (r *MessageResult) Succeeded() bool {
	return r.ErrorCode == 0
}

// APIError is an error response from the provider API. It covers the
// whole call: the request reached the provider and was refused.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postmark: status %d, code %d: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// Transport sends rendered emails in batches. Implemented by Client and
// by SandboxClient for development.
type Transport interface {
	SendBatch(ctx context.Context, messages []Message) ([]MessageResult, error)
}

// Client is a Postmark API client
type Client struct {
	baseURL     string
	serverToken string
	httpClient  *http.Client
}

// NewClient creates a new Postmark API client
func NewClient(baseURL, serverToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		serverToken: serverToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendBatch submits up to BatchMax messages in one call. An *APIError
// means the provider rejected the call; any other error means the call
// never completed and the messages may or may not have been accepted.
func (c *Client) SendBatch(ctx context.Context, messages []Message) ([]MessageResult, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	if len(messages) > BatchMax {
		return nil, fmt.Errorf("batch of %d exceeds the provider limit of %d", len(messages), BatchMax)
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			ErrorCode int    `json:"ErrorCode"`
			Message   string `json:"Message"`
		}
		if json.Unmarshal(body, &errBody) == nil && errBody.Message != "" {
			apiErr.ErrorCode = errBody.ErrorCode
			apiErr.Message = errBody.Message
		} else {
			apiErr.Message = string(body)
		}
		return nil, apiErr
	}

	var results []MessageResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parsing batch response: %w", err)
	}

	return results, nil
}
