package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/notification"
	"github.com/fatali-fataliyev/banking_portal/internal/portal"
	"github.com/fatali-fataliyev/banking_portal/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeBank struct{}

func (fakeBank) FetchTransactions(ctx context.Context) ([]notification.RawTransaction, error) {
	return []notification.RawTransaction{
		{"id": "tx-1", "transactionType": "deposit", "amount": 500000.0, "transactionDate": "2026-10-18T08:00:00Z"},
		{"id": "tx-2", "transactionType": "withdrawal", "amount": 20000.0, "transactionDate": "2026-10-18T09:00:00Z"},
	}, nil
}

func (fakeBank) ResolveAccountNumber(ctx context.Context) (string, error) {
	return "1000123", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := portal.NewPortal(storage.NewInMemoryStorage(), func(token string) portal.BankClient { return fakeBank{} }, portal.Options{
		Timezone: "UTC",
		PollSpec: "@every 1h",
	})
	t.Cleanup(p.Close)

	api := NewApi(p)
	api.Now = func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) }
	mux := http.NewServeMux()
	api.Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, server *httptest.Server, method string, path string, body string, dst any) int {
	t.Helper()
	req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok-valid")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestNotificationEndpoints(t *testing.T) {
	server := newTestServer(t)

	var list NotificationsResponse
	require.Equal(t, 200, do(t, server, "GET", "/api/notifications", "", &list))
	require.Len(t, list.Notifications, 2)
	require.Equal(t, 2, list.UnreadCount)
	require.Equal(t, "tx-2", list.Notifications[0].ID)
	require.Equal(t, "WITHDRAWAL", list.Notifications[0].Type)
	require.Equal(t, "1 hour ago", list.Notifications[0].TimeAgo)

	require.Equal(t, 200, do(t, server, "POST", "/api/notifications/read", `{"id":"tx-2"}`, &list))
	require.Equal(t, 1, list.UnreadCount)

	var count UnreadCountResponse
	require.Equal(t, 200, do(t, server, "GET", "/api/notifications/unread-count", "", &count))
	require.Equal(t, 1, count.UnreadCount)

	require.Equal(t, 200, do(t, server, "POST", "/api/notifications/dismiss", `{"id":"tx-1"}`, &list))
	require.Len(t, list.Notifications, 1)
	require.Equal(t, 0, list.UnreadCount)

	require.Equal(t, 200, do(t, server, "POST", "/api/notifications/read-all", "", &list))
	require.Equal(t, 202, do(t, server, "POST", "/api/notifications/refresh", "", nil))

	var errResp appErrors.ErrorResponse
	require.Equal(t, 400, do(t, server, "POST", "/api/notifications/read", `{"id":""}`, &errResp))
	require.Equal(t, appErrors.ErrInvalidInput, errResp.Code)
	require.Equal(t, 400, do(t, server, "POST", "/api/notifications/read", `{bad`, &errResp))
}

func TestSpendingEndpoints(t *testing.T) {
	server := newTestServer(t)

	require.Equal(t, 200, do(t, server, "PUT", "/api/spending-limit", `{"weekly":"1000000","monthly":0,"yearly":0}`, nil))
	require.Equal(t, 201, do(t, server, "POST", "/api/spending", `{"amount":900000}`, nil))

	var decision SpendingCheckResponse
	require.Equal(t, 200, do(t, server, "POST", "/api/spending-limit/check", `{"amount":200000}`, &decision))
	require.True(t, decision.IsExceeded)
	require.Equal(t, "weekly", decision.Period)

	require.Equal(t, 200, do(t, server, "POST", "/api/spending-limit/check", `{"amount":"50000"}`, &decision))
	require.False(t, decision.IsExceeded)
	require.Equal(t, "none", decision.Period)

	var limits SpendingLimitsResponse
	require.Equal(t, 200, do(t, server, "GET", "/api/spending-limit", "", &limits))
	require.Equal(t, "1000000", limits.Limits.Weekly.String())
	require.Equal(t, "900000", limits.Current.Yearly.String())

	var errResp appErrors.ErrorResponse
	require.Equal(t, 400, do(t, server, "PUT", "/api/spending-limit", `{"weekly":-1}`, &errResp))
	require.Equal(t, 400, do(t, server, "POST", "/api/spending", `{"amount":0}`, &errResp))
	require.Equal(t, 400, do(t, server, "POST", "/api/spending-limit/check", `{"amount":-5}`, &errResp))
}

func TestBalanceVisibilityEndpoints(t *testing.T) {
	server := newTestServer(t)

	var visibility BalanceVisibilityResponse
	require.Equal(t, 200, do(t, server, "GET", "/api/balance-visibility", "", &visibility))
	require.True(t, visibility.Visible)

	require.Equal(t, 200, do(t, server, "POST", "/api/balance-visibility/toggle", "", &visibility))
	require.False(t, visibility.Visible)

	var msg MessageResponse
	require.Equal(t, 200, do(t, server, "POST", "/api/logout", "", &msg))
	require.Equal(t, "logged out", msg.Message)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/notifications")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 401, resp.StatusCode)
}

func TestHttpStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{appErrors.ErrorResponse{Code: appErrors.ErrNotFound}, 404},
		{appErrors.ErrorResponse{Code: appErrors.ErrInvalidInput}, 400},
		{fmt.Errorf("wrapped: %w", appErrors.ErrorResponse{Code: appErrors.ErrAuth}), 401},
		{appErrors.ErrorResponse{Code: appErrors.ErrConflict}, 409},
		{appErrors.ErrorResponse{Code: appErrors.ErrUnavailable}, 503},
		{fmt.Errorf("boom"), 500},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, httpStatusFromError(tt.err), tt.err.Error())
	}
}
