package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/walletshop/walletshop/internal/handler/dto"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/service"
)

// UserService is the account surface used by the HTTP layer.
type UserService interface {
	SyncUser(ctx context.Context, input service.SyncUserInput) (*model.User, bool, error)
	GetUser(ctx context.Context, firebaseUID string) (*model.User, error)
	SetRole(ctx context.Context, id, role string) (*model.User, error)
}

// UserHandler handles account endpoints.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger.With("component", "handler.user"),
	}
}

// Sync handles POST /api/users/sync. It answers 201 when the account is new.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req dto.SyncUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	user, created, err := h.svc.SyncUser(r.Context(), service.SyncUserInput{
		FirebaseUID: req.FirebaseUID,
		Email:       req.Email,
		Username:    req.Username,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto.SyncUserResponse{User: dto.ToUserResponse(user), Created: created})
}

// Get handles GET /api/users/{firebaseUid}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "firebaseUid"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}
