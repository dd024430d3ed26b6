package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/auth"
	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/internal/portal"
	"github.com/fatali-fataliyev/banking_portal/internal/spending"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/google/uuid"
)

type Api struct {
	Service *portal.Portal
	Now     func() time.Time
}

func NewApi(service *portal.Portal) *Api {
	return &Api{
		Service: service,
		Now:     time.Now,
	}
}

// Register mounts every portal endpoint on mux.
func (api *Api) Register(mux *http.ServeMux) {
	// NOTIFICATION ENDPOINTS.
	mux.HandleFunc("GET /api/notifications", iz.Bind(api.GetNotificationsHandler))               // Recompute and list notifications
	mux.HandleFunc("GET /api/notifications/unread-count", iz.Bind(api.GetUnreadCountHandler))    // Unread badge count
	mux.HandleFunc("POST /api/notifications/read", iz.Bind(api.MarkReadHandler))                 // Mark one notification read
	mux.HandleFunc("POST /api/notifications/read-all", iz.Bind(api.MarkAllReadHandler))          // Mark listed (or all) notifications read
	mux.HandleFunc("POST /api/notifications/dismiss", iz.Bind(api.DismissHandler))               // Drop a notification from the list
	mux.HandleFunc("POST /api/notifications/refresh", iz.Bind(api.RefreshNotificationsHandler))  // Queue a background refresh

	// SPENDING LIMIT ENDPOINTS.
	mux.HandleFunc("POST /api/spending-limit/check", iz.Bind(api.CheckSpendingLimitHandler)) // Would this amount exceed a limit?
	mux.HandleFunc("GET /api/spending-limit", iz.Bind(api.GetSpendingLimitsHandler))         // Limits and running totals
	mux.HandleFunc("PUT /api/spending-limit", iz.Bind(api.SaveSpendingLimitsHandler))        // Replace limits
	mux.HandleFunc("POST /api/spending", iz.Bind(api.RecordSpendingHandler))                 // Record a completed transaction

	// ACCOUNT ENDPOINTS.
	mux.HandleFunc("GET /api/balance-visibility", iz.Bind(api.GetBalanceVisibilityHandler))            // Balance shown or hidden
	mux.HandleFunc("POST /api/balance-visibility/toggle", iz.Bind(api.ToggleBalanceVisibilityHandler)) // Flip balance visibility
	mux.HandleFunc("POST /api/logout", iz.Bind(api.LogoutHandler))                                     // Stop the session
}

func (api *Api) session(r *iz.Request) (context.Context, *portal.Session, iz.Responder) {
	ctx := contextutil.WithTraceID(context.Background(), uuid.New().String())

	token := ""
	if header := r.Header.Get("Authorization"); header != "" {
		t, err := auth.BearerToken(header)
		if err != nil {
			return ctx, nil, fail(ctx, "authorization failed", err)
		}
		token = t
	}

	s, err := api.Service.Session(ctx, token)
	if err != nil {
		return ctx, nil, fail(ctx, "authorization failed", err)
	}
	return ctx, s, nil
}

func fail(ctx context.Context, what string, err error) iz.Responder {
	status := httpStatusFromError(err)
	if status >= 500 {
		logging.Logger.Errorf("[TraceID=%s] | %s: %v", contextutil.TraceIDFromContext(ctx), what, err)
	} else {
		logging.Logger.Debugf("[TraceID=%s] | %s: %v", contextutil.TraceIDFromContext(ctx), what, err)
	}
	return iz.Respond().Status(status).JSON(errorBody(err))
}

// decodeBody tolerates an empty body so optional payloads can be omitted.
func decodeBody(r *iz.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("invalid request body: %s", err.Error()),
		}
	}
	return nil
}

func (api *Api) GetNotificationsHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}
	result := s.Notifications(ctx)
	return iz.Respond().Status(200).JSON(NotificationsToHttp(result, api.Now()))
}

func (api *Api) GetUnreadCountHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}
	return iz.Respond().Status(200).JSON(UnreadCountResponse{UnreadCount: s.UnreadCount(ctx)})
}

func (api *Api) MarkReadHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	var req NotificationIDRequest
	if err := decodeBody(r, &req); err != nil {
		return fail(ctx, "failed to parse mark read request", err)
	}

	result, err := s.MarkRead(ctx, req.ID)
	if err != nil {
		return fail(ctx, "failed to mark notification read", err)
	}
	return iz.Respond().Status(200).JSON(NotificationsToHttp(result, api.Now()))
}

func (api *Api) MarkAllReadHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	var req MarkAllReadRequest
	if err := decodeBody(r, &req); err != nil {
		return fail(ctx, "failed to parse mark all read request", err)
	}

	result, err := s.MarkAllRead(ctx, req.IDs)
	if err != nil {
		return fail(ctx, "failed to mark notifications read", err)
	}
	return iz.Respond().Status(200).JSON(NotificationsToHttp(result, api.Now()))
}

func (api *Api) DismissHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	var req NotificationIDRequest
	if err := decodeBody(r, &req); err != nil {
		return fail(ctx, "failed to parse dismiss request", err)
	}

	result, err := s.Dismiss(ctx, req.ID)
	if err != nil {
		return fail(ctx, "failed to dismiss notification", err)
	}
	return iz.Respond().Status(200).JSON(NotificationsToHttp(result, api.Now()))
}

func (api *Api) RefreshNotificationsHandler(r *iz.Request) iz.Responder {
	_, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}
	s.Refresh()
	return iz.Respond().Status(202).JSON(MessageResponse{Message: "refresh queued"})
}

func (api *Api) CheckSpendingLimitHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		return fail(ctx, "failed to parse spending check request", err)
	}
	if req.Amount.IsNegative() {
		return fail(ctx, "invalid spending check", appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Amount cannot be negative.",
		})
	}

	decision := s.CheckSpendingLimit(ctx, req.Amount)
	return iz.Respond().Status(200).JSON(DecisionToHttp(decision))
}

func (api *Api) GetSpendingLimitsHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	limits, current, err := s.SpendingLimits(ctx)
	if err != nil {
		return fail(ctx, "failed to load spending limits", err)
	}
	return iz.Respond().Status(200).JSON(LimitsToHttp(limits, current))
}

func (api *Api) SaveSpendingLimitsHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	var req SpendingLimitsRequest
	if err := decodeBody(r, &req); err != nil {
		return fail(ctx, "failed to parse spending limits request", err)
	}

	limits := spending.Limits{Weekly: req.Weekly, Monthly: req.Monthly, Yearly: req.Yearly}
	if err := s.SaveSpendingLimits(ctx, limits); err != nil {
		return fail(ctx, "failed to save spending limits", err)
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "spending limits saved"})
}

func (api *Api) RecordSpendingHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		return fail(ctx, "failed to parse spending request", err)
	}

	current, err := s.RecordSpending(ctx, req.Amount)
	if err != nil {
		return fail(ctx, "failed to record spending", err)
	}
	return iz.Respond().Status(201).JSON(SpendingLimitsRequest{
		Weekly:  current.Weekly,
		Monthly: current.Monthly,
		Yearly:  current.Yearly,
	})
}

func (api *Api) GetBalanceVisibilityHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	visible, err := s.BalanceVisible(ctx)
	if err != nil {
		return fail(ctx, "failed to load balance visibility", err)
	}
	return iz.Respond().Status(200).JSON(BalanceVisibilityResponse{Visible: visible})
}

func (api *Api) ToggleBalanceVisibilityHandler(r *iz.Request) iz.Responder {
	ctx, s, errResp := api.session(r)
	if errResp != nil {
		return errResp
	}

	visible, err := s.ToggleBalanceVisibility(ctx)
	if err != nil {
		return fail(ctx, "failed to toggle balance visibility", err)
	}
	return iz.Respond().Status(200).JSON(BalanceVisibilityResponse{Visible: visible})
}

func (api *Api) LogoutHandler(r *iz.Request) iz.Responder {
	token := ""
	if header := r.Header.Get("Authorization"); header != "" {
		t, err := auth.BearerToken(header)
		if err != nil {
			return iz.Respond().Status(httpStatusFromError(err)).JSON(errorBody(err))
		}
		token = t
	}
	if !api.Service.Logout(token) {
		return iz.Respond().Status(200).JSON(MessageResponse{Message: "no active session"})
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "logged out"})
}
