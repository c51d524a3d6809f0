// Package wallet adapts the external ledger/wallet service. The engine
// never computes balances itself — every balance and transfer goes through
// here.
package wallet

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the ledger service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ledger client for the given endpoint.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BalanceOf queries the balance of an account.
func (c *Client) BalanceOf(ctx context.Context, account string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/balance/"+account, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("balance query: ledger returned %s", resp.Status)
	}
	var body struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("balance query: decode: %w", err)
	}
	return body.Balance, nil
}

// Transfer moves funds between two accounts.
func (c *Client) Transfer(ctx context.Context, from, to string, amount float64) error {
	payload, err := json.Marshal(map[string]any{
		"from":   from,
		"to":     to,
		"amount": amount,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transfer: ledger returned %s", resp.Status)
	}
	return nil
}

// AccountID derives a stable account identifier from a principal. The
// real cryptographic derivation lives in the ledger canister; this is the
// same-shape stand-in the engine shares with it.
func (c *Client) AccountID(principal string) string {
	return DeriveAccountID(principal)
}

// DeriveAccountID hashes a principal into a hex account identifier.
func DeriveAccountID(principal string) string {
	h := sha256.Sum256([]byte("account:" + principal))
	return hex.EncodeToString(h[:])
}
