package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultConfirmTimeout = 30 * time.Second
	defaultPollInterval   = 2 * time.Second
)

// Client is a minimal chain-gateway REST client. The gateway owns keys and
// broadcasting; this client only submits and polls for confirmation, with a
// bounded wait instead of the unbounded hang of the reference behavior.
type Client struct {
	baseURL        string
	token          string
	client         *http.Client
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithConfirmTimeout bounds the total confirmation wait.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.confirmTimeout = d
		}
	}
}

// WithPollInterval sets the confirmation poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// NewClient constructs a gateway client.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("chain: empty base url")
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		client:         &http.Client{Timeout: 10 * time.Second},
		confirmTimeout: defaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

type statusResponse struct {
	TxHash      string    `json:"tx_hash"`
	Status      string    `json:"status"`
	Error       string    `json:"error"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// SubmitAndConfirm submits a transaction and polls until the gateway reports
// it confirmed, rejected, or the bounded wait expires.
func (c *Client) SubmitAndConfirm(ctx context.Context, tx Tx) (Receipt, error) {
	if c == nil {
		return Receipt{}, errors.New("chain: nil client")
	}
	if tx.Method == "" {
		return Receipt{}, errors.New("chain: empty method")
	}

	var submitted submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/transactions", tx, &submitted); err != nil {
		return Receipt{}, err
	}
	if submitted.TxHash == "" {
		return Receipt{}, errors.New("chain: gateway returned no tx hash")
	}

	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		// Transient poll errors are retried until the deadline.
		var status statusResponse
		if err := c.doJSON(ctx, http.MethodGet, "/api/v1/transactions/"+submitted.TxHash, nil, &status); err == nil {
			switch status.Status {
			case "confirmed":
				confirmedAt := status.ConfirmedAt
				if confirmedAt.IsZero() {
					confirmedAt = time.Now().UTC()
				}
				return Receipt{TxHash: submitted.TxHash, ConfirmedAt: confirmedAt}, nil
			case "failed", "rejected":
				if status.Error != "" {
					return Receipt{}, fmt.Errorf("%w: %s", ErrTxRejected, status.Error)
				}
				return Receipt{}, ErrTxRejected
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Receipt{}, ErrConfirmationTimeout
			}
			return Receipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chain: gateway %s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
