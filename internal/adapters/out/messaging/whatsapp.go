// Package messaging delivers rendered notifications to customers.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"
)

const DefaultWhatsAppBaseURL = "https://graph.facebook.com/v20.0"

// WhatsAppTransport sends text messages through the WhatsApp Cloud API.
type WhatsAppTransport struct {
	baseURL       string
	phoneNumberID string
	token         string
	client        *http.Client
}

func NewWhatsAppTransport(baseURL, phoneNumberID, token string, client *http.Client) (*WhatsAppTransport, error) {
	if phoneNumberID == "" {
		return nil, errs.NewValueIsRequiredError("phoneNumberID")
	}
	if token == "" {
		return nil, errs.NewValueIsRequiredError("token")
	}
	if baseURL == "" {
		baseURL = DefaultWhatsAppBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WhatsAppTransport{
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		token:         token,
		client:        client,
	}, nil
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

// Send posts one text message. The API rejecting the request (4xx other than
// 429) means the destination or message is unusable and is not retried.
func (t *WhatsAppTransport) Send(ctx context.Context, destination, message string) error {
	body, err := json.Marshal(whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(destination, "+"),
		Type:             "text",
		Text:             whatsAppText{Body: message},
	})
	if err != nil {
		return errs.NewMalformedPayloadErrorWithCause("encode whatsapp message", err)
	}

	url := fmt.Sprintf("%s/%s/messages", t.baseURL, t.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errs.NewTransportFailureError(destination, err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errs.NewTransportFailureError(destination, err)
	}
	defer resp.Body.Close()

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return errs.NewTransportFailureError(destination,
			fmt.Errorf("whatsapp responded %d: %s", resp.StatusCode, detail))
	default:
		return errs.NewMalformedPayloadError(
			fmt.Sprintf("whatsapp rejected message to %s with %d: %s", destination, resp.StatusCode, detail))
	}
}
