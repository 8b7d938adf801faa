package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client requests claim attestations from the settlement ledger HTTP API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient returns a client for the given ledger endpoint.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type attestRequest struct {
	ClaimID string `json:"claimId"`
	Amount  int64  `json:"amount"`
}

type attestResponse struct {
	TransactionHash string `json:"transactionHash"`
	Error           string `json:"error"`
}

// Attest posts the claim to the ledger and returns its transaction hash.
// Any transport failure, non-200 status, or empty hash is an error; the
// caller must leave the claim unapproved.
func (c *Client) Attest(ctx context.Context, claimID string, amount int64) (string, error) {
	if c.BaseURL == "" {
		return "", fmt.Errorf("ledger: base URL not configured")
	}
	raw, err := json.Marshal(attestRequest{ClaimID: claimID, Amount: amount})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/attestations", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ledger: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	var out attestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ledger: decode response: %w", err)
	}
	if out.TransactionHash == "" {
		if out.Error != "" {
			return "", fmt.Errorf("ledger: %s", out.Error)
		}
		return "", fmt.Errorf("ledger: response missing transaction hash")
	}
	return out.TransactionHash, nil
}
