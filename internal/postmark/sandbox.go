package postmark

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SandboxClient accepts every message without calling out, handing back
// generated message ids. It stands in for the real provider in
// development and tests.
type SandboxClient struct{}

// NewSandboxClient creates a sandbox transport
func NewSandboxClient() *SandboxClient {
	return &SandboxClient{}
}

// SendBatch accepts all messages with fresh message ids
func (s *SandboxClient) SendBatch(ctx context.Context, messages []Message) ([]MessageResult, error) {
	results := make([]MessageResult, len(messages))
	now := time.Now()
	for i, m := range messages {
		results[i] = MessageResult{
			To:          m.To,
			SubmittedAt: now,
			MessageID:   uuid.NewString(),
		}
	}
	return results, nil
}
