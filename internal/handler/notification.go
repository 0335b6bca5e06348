package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/walletshop/walletshop/internal/handler/dto"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/notify"
)

// Notifier dispatches push notifications and reports tagged outcomes.
type Notifier interface {
	Send(ctx context.Context, n model.Notification) model.DispatchResult
	SendToAdmins(ctx context.Context, n model.AdminNotification) model.DispatchResult
	BindIdentity(b model.IdentityBinding)
}

// NotificationHandler handles the push notification endpoints.
type NotificationHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifier Notifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger.With("component", "handler.notification"),
	}
}

// Send handles POST /api/notifications/send.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeSendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	n := req.ToModel()
	if err := notify.Validate(n); err != nil {
		writeSendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, h.notifier.Send(r.Context(), n))
}

// SendToAdmins handles POST /api/notifications/send-to-admins.
func (h *NotificationHandler) SendToAdmins(w http.ResponseWriter, r *http.Request) {
	var req dto.SendToAdminsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeSendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	n := req.ToModel()
	if err := notify.ValidateAdmin(n); err != nil {
		writeSendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, h.notifier.SendToAdmins(r.Context(), n))
}

// BindIdentity handles POST /api/notifications/identity.
// The binding runs detached; the response is 202 whatever its outcome.
func (h *NotificationHandler) BindIdentity(w http.ResponseWriter, r *http.Request) {
	var req dto.BindIdentityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("identity binding request ignored", "error", err)
		writeJSON(w, http.StatusAccepted, dto.AcceptedResponse{Accepted: true})
		return
	}

	h.notifier.BindIdentity(model.IdentityBinding{
		SubscriberID: req.SubscriberID,
		UserID:       req.UserID,
		Email:        req.Email,
	})
	writeJSON(w, http.StatusAccepted, dto.AcceptedResponse{Accepted: true})
}

func (h *NotificationHandler) respond(w http.ResponseWriter, result model.DispatchResult) {
	if !result.Success {
		writeSendFailure(w, http.StatusBadGateway, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, dto.NotificationResponse{
		Success:    true,
		ID:         result.ID,
		Recipients: result.Recipients,
	})
}
