package api

import (
	"errors"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/notification"
	"github.com/fatali-fataliyev/banking_portal/internal/spending"
	"github.com/shopspring/decimal"
)

// REQUESTS START:
type NotificationIDRequest struct {
	ID string `json:"id"`
}

type MarkAllReadRequest struct {
	IDs []string `json:"ids"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type SpendingLimitsRequest struct {
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
	Yearly  decimal.Decimal `json:"yearly"`
}

//REQUESTS END:

//RESPONSES:

type NotificationItem struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Message              string          `json:"message"`
	Type                 string          `json:"type"`
	IsRead               bool            `json:"is_read"`
	CreatedAt            time.Time       `json:"created_at"`
	TimeAgo              string          `json:"time_ago"`
	Amount               decimal.Decimal `json:"amount"`
	RelatedAccountNumber string          `json:"related_account_number,omitempty"`
}

type NotificationsResponse struct {
	Notifications []NotificationItem `json:"notifications"`
	UnreadCount   int                `json:"unread_count"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type SpendingCheckResponse struct {
	IsExceeded bool   `json:"is_exceeded"`
	Period     string `json:"period"`
	Message    string `json:"message"`
}

type SpendingLimitsResponse struct {
	Limits  SpendingLimitsRequest `json:"limits"`
	Current SpendingLimitsRequest `json:"current"`
}

type BalanceVisibilityResponse struct {
	Visible bool `json:"visible"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func httpStatusFromError(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.ErrNotFound:
		return 404 // not found
	case appErrors.ErrInvalidInput:
		return 400 // bad request
	case appErrors.ErrAuth:
		return 401 // unauthorized
	case appErrors.ErrConflict:
		return 409 // conflict
	case appErrors.ErrUnavailable:
		return 503 // upstream or shutdown
	default:
		return 500 //internal error
	}
}

// errorBody keeps coded errors as they are and hides anything else behind ErrInternal.
func errorBody(err error) appErrors.ErrorResponse {
	var resp appErrors.ErrorResponse
	if errors.As(err, &resp) {
		return resp
	}
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: "internal error",
	}
}

func NotificationsToHttp(result notification.Result, now time.Time) NotificationsResponse {
	items := make([]NotificationItem, 0, len(result.Notifications))
	for _, n := range result.Notifications {
		items = append(items, NotificationItem{
			ID:                   n.ID,
			Title:                n.Title,
			Message:              n.Message,
			Type:                 string(n.Category),
			IsRead:               n.IsRead,
			CreatedAt:            n.CreatedAt,
			TimeAgo:              notification.TimeAgo(n.CreatedAt, now),
			Amount:               n.Amount,
			RelatedAccountNumber: n.RelatedAccountNumber,
		})
	}
	return NotificationsResponse{Notifications: items, UnreadCount: result.UnreadCount}
}

func DecisionToHttp(d spending.Decision) SpendingCheckResponse {
	return SpendingCheckResponse{
		IsExceeded: d.IsExceeded,
		Period:     string(d.Period),
		Message:    d.Message,
	}
}

func LimitsToHttp(limits spending.Limits, current spending.Spending) SpendingLimitsResponse {
	return SpendingLimitsResponse{
		Limits: SpendingLimitsRequest{
			Weekly:  limits.Weekly,
			Monthly: limits.Monthly,
			Yearly:  limits.Yearly,
		},
		Current: SpendingLimitsRequest{
			Weekly:  current.Weekly,
			Monthly: current.Monthly,
			Yearly:  current.Yearly,
		},
	}
}
