package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody limits how much of a failed response body ends up in an error.
const maxErrorBody = 1 << 10

var (
	// errBadHTTPStatus is returned when the gateway answers with a non-2xx status.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errOutcomeMismatch is returned when the gateway reports a different number of outcomes.
	errOutcomeMismatch = errors.New("gateway returned a different number of outcomes")
	// ErrRejected wraps the reason reported by the gateway for one address.
	ErrRejected = errors.New("rejected by push gateway")
)

// HTTPTransport sends a batch to an HTTP push gateway in a single request.
type HTTPTransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPTransport creates a transport posting to endpoint.
func NewHTTPTransport(endpoint, apiKey string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type gatewayAndroid struct {
	Priority string `json:"priority"`
}

type gatewayAPS struct {
	Sound            string `json:"sound"`
	ContentAvailable int    `json:"content-available"`
}

type gatewayAPNs struct {
	Headers map[string]string `json:"headers"`
	Payload struct {
		APS gatewayAPS `json:"aps"`
	} `json:"payload"`
}

type gatewayMessage struct {
	Token   string            `json:"token"`
	Data    map[string]string `json:"data"`
	Android gatewayAndroid    `json:"android"`
	APNs    gatewayAPNs       `json:"apns"`
}

type gatewayRequest struct {
	Messages []gatewayMessage `json:"messages"`
}

type gatewayResponse struct {
	Responses []struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	} `json:"responses"`
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, msg *Message) ([]Outcome, error) {
	body, err := json.Marshal(t.buildRequest(msg))
	if err != nil {
		return nil, fmt.Errorf("encode push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build push request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post push batch: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d: %s", errBadHTTPStatus, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var decoded gatewayResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}

	if len(decoded.Responses) != len(msg.Addresses) {
		return nil, fmt.Errorf("%w: sent %d, got %d", errOutcomeMismatch, len(msg.Addresses), len(decoded.Responses))
	}

	outcomes := make([]Outcome, len(msg.Addresses))

	for i, address := range msg.Addresses {
		outcomes[i] = Outcome{Address: address}

		if r := decoded.Responses[i]; !r.Success {
			reason := r.Error
			if reason == "" {
				reason = "unknown error"
			}

			outcomes[i].Err = fmt.Errorf("%w: %s", ErrRejected, reason)
		}
	}

	return outcomes, nil
}

// buildRequest expands the message into one gateway entry per address.
func (t *HTTPTransport) buildRequest(msg *Message) *gatewayRequest {
	data := msg.Data()

	var apns gatewayAPNs

	apns.Headers = map[string]string{"apns-priority": APNsPriorityHigh}
	apns.Payload.APS = gatewayAPS{Sound: DefaultSound, ContentAvailable: 1}

	batch := &gatewayRequest{
		Messages: make([]gatewayMessage, 0, len(msg.Addresses)),
	}

	for _, address := range msg.Addresses {
		batch.Messages = append(batch.Messages, gatewayMessage{
			Token:   address,
			Data:    data,
			Android: gatewayAndroid{Priority: AndroidPriorityHigh},
			APNs:    apns,
		})
	}

	return batch
}
