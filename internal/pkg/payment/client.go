package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mhsong/shopfront/internal/pkg/env"
)

const defaultAPIBaseURL = "http://localhost:8080"

// API is the slice of the shop backend the reconciliation flow consumes:
// a best-effort gateway re-sync (push) and the canonical status read (pull).
type API interface {
	Sync(ctx context.Context, paymentID uint64) error
	Get(ctx context.Context, paymentID uint64) (*StatusSnapshot, error)
}

// Client talks to the authoritative shop backend over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a backend client from SHOP_API_BASE_URL.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("SHOP_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Sync asks the backend to re-query the payment gateway for this payment.
// Any 2xx response counts as attempted; everything else is an error the
// caller may treat as recoverable.
func (c *Client) Sync(ctx context.Context, paymentID uint64) error {
	if paymentID == 0 {
		return errors.New("payment id is required")
	}

	u := fmt.Sprintf("%s/payment/%d/sync", strings.TrimRight(c.BaseURL, "/"), paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment sync failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// Get fetches the backend's current canonical status record for a payment.
func (c *Client) Get(ctx context.Context, paymentID uint64) (*StatusSnapshot, error) {
	if paymentID == 0 {
		return nil, errors.New("payment id is required")
	}

	u := fmt.Sprintf("%s/payment/%d", strings.TrimRight(c.BaseURL, "/"), paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out StatusSnapshot
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, errors.New("payment fetch returned empty payment id")
	}
	return &out, nil
}
