package vrf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"raffled/pkg/domain"
	dErrors "raffled/pkg/domain-errors"
)

// HTTPCoordinator posts randomness requests to a remote coordinator
// service. Fulfillments come back through the service's callback endpoint,
// not through this client.
type HTTPCoordinator struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPCoordinator(baseURL, token string) *HTTPCoordinator {
	return &HTTPCoordinator{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type randomWordsRequestBody struct {
	KeyHash              string `json:"key_hash"`
	SubscriptionID       uint64 `json:"subscription_id"`
	RequestConfirmations uint16 `json:"request_confirmations"`
	CallbackGasLimit     uint32 `json:"callback_gas_limit"`
	NumWords             uint32 `json:"num_words"`
}

type randomWordsResponseBody struct {
	RequestID string `json:"request_id"`
}

func (c *HTTPCoordinator) RequestRandomWords(ctx context.Context, req RandomWordsRequest) (domain.RequestID, error) {
	body, err := json.Marshal(randomWordsRequestBody{
		KeyHash:              req.KeyHash,
		SubscriptionID:       req.SubscriptionID,
		RequestConfirmations: req.RequestConfirmations,
		CallbackGasLimit:     req.CallbackGasLimit,
		NumWords:             req.NumWords,
	})
	if err != nil {
		return "", fmt.Errorf("marshal randomness request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/requests", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build randomness request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "coordinator unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("coordinator rejected request: status %d", resp.StatusCode))
	}

	var out randomWordsResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode coordinator response: %w", err)
	}
	if out.RequestID == "" {
		return "", fmt.Errorf("coordinator response missing request id")
	}
	return domain.RequestID(out.RequestID), nil
}
