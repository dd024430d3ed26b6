// Package bankapi talks to the core banking REST backend for the data the
// portal's notification feed is built from.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/notification"
)

const (
	TransactionsPath = "/account/transactions"
	AccountPath      = "/dashboard/account"
	maxBodyBytes     = 10 << 20
)

type Client struct {
	HTTPClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL string, token string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// FetchTransactions returns the raw transaction history of the authenticated account.
func (c *Client) FetchTransactions(ctx context.Context) ([]notification.RawTransaction, error) {
	body, err := c.get(ctx, TransactionsPath)
	if err != nil {
		return nil, err
	}

	var list []notification.RawTransaction
	if err := decode(body, &list); err == nil {
		return list, nil
	}

	// some deployments wrap the list in a page object
	var page map[string]json.RawMessage
	if err := decode(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal transactions error: %w", err)
	}
	for _, key := range []string{"transactions", "content", "data"} {
		raw, ok := page[key]
		if !ok {
			continue
		}
		if err := decode(raw, &list); err != nil {
			return nil, fmt.Errorf("unmarshal transactions error: %w", err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unexpected transactions payload")
}

// ResolveAccountNumber asks the backend which account the token belongs to.
func (c *Client) ResolveAccountNumber(ctx context.Context) (string, error) {
	body, err := c.get(ctx, AccountPath)
	if err != nil {
		return "", err
	}

	var account map[string]any
	if err := decode(body, &account); err != nil {
		return "", fmt.Errorf("unmarshal account error: %w", err)
	}
	number := strings.TrimSpace(fmt.Sprint(account["accountNumber"]))
	if account["accountNumber"] == nil || number == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrNotFound,
			Message: "Account details do not include an account number.",
		}
	}
	return number, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(c.token, "Bearer "))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrUnavailable,
			Message: fmt.Sprintf("bank backend request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body error: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: fmt.Sprintf("bank backend rejected credentials for %s", path),
		}
	case resp.StatusCode >= 300:
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrUnavailable,
			Message: fmt.Sprintf("bank backend returned %d for %s", resp.StatusCode, path),
		}
	}
	return body, nil
}

// decode keeps numbers as json.Number so large ids and epoch values survive intact.
func decode(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(dst)
}
