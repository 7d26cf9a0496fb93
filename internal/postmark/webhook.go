package postmark

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// Record types carried in the webhook RecordType discriminator.
const (
	RecordDelivery      = "Delivery"
	RecordOpen          = "Open"
	RecordClick         = "Click"
	RecordBounce        = "Bounce"
	RecordSpamComplaint = "SpamComplaint"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "X-Postmark-Webhook-Signature"

// Geo is the client location block on open and click events
type Geo struct {
	IP     string `json:"IP"`
	City   string `json:"City,omitempty"`
	Region string `json:"Region,omitempty"`
	Ctry   string `json:"Country,omitempty"`
}

// WebhookEvent is one provider callback. A request carries exactly one
// event; RecordType says which kind.
type WebhookEvent struct {
	RecordType   string    `json:"RecordType"`
	MessageID    string    `json:"MessageID"`
	Recipient    string    `json:"Recipient,omitempty"`
	ReceivedAt   time.Time `json:"ReceivedAt,omitzero"`
	DeliveredAt  time.Time `json:"DeliveredAt,omitzero"`
	BouncedAt    time.Time `json:"BouncedAt,omitzero"`
	OriginalLink string    `json:"OriginalLink,omitempty"`
	Description  string    `json:"Description,omitempty"`
	UserAgent    string    `json:"UserAgent,omitempty"`
	Geo          *Geo      `json:"Geo,omitempty"`
}

// OccurredTime returns the provider timestamp for the event, whichever
// field carries it, falling back to now for events without one.
func (e *WebhookEvent) OccurredTime() time.Time {
	switch {
	case !e.ReceivedAt.IsZero():
		return e.ReceivedAt
	case !e.DeliveredAt.IsZero():
		return e.DeliveredAt
	case !e.BouncedAt.IsZero():
		return e.BouncedAt
	}
	return time.Now()
}

// Sign computes the base64 HMAC-SHA256 of a webhook body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time. With no
// secret configured every request passes.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
