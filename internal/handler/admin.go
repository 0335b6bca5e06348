package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/walletshop/walletshop/internal/auth"
	"github.com/walletshop/walletshop/internal/handler/dto"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/service"
)

// UserLister lists users holding a role.
type UserLister interface {
	ListUsersByRole(ctx context.Context, role string) ([]*model.User, error)
}

// AdminHandler provides the admin-key protected endpoints.
type AdminHandler struct {
	discounts DiscountService
	users     UserService
	lister    UserLister
	logger    *slog.Logger
	version   string
	startedAt time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(discounts DiscountService, users UserService, lister UserLister, version string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		discounts: discounts,
		users:     users,
		lister:    lister,
		logger:    logger.With("component", "handler.admin"),
		version:   version,
		startedAt: time.Now(),
	}
}

// CreateDiscount handles POST /api/admin/discounts.
func (h *AdminHandler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDiscountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.DiscountPercentage == nil {
		writeError(w, http.StatusBadRequest, "INVALID_PERCENTAGE", "discountPercentage is required")
		return
	}

	input := service.CreateDiscountInput{
		ProductID:  req.ProductID,
		Percentage: *req.DiscountPercentage,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		input.EndDate = *req.EndDate
	}

	d, err := h.discounts.CreateDiscount(r.Context(), input)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("discount created by admin",
		"discount_id", d.ID,
		"product_id", d.ProductID,
		"key_prefix", adminPrefix(r),
	)
	writeJSON(w, http.StatusCreated, dto.ToDiscountResponse(d))
}

// SetUserRole handles PATCH /api/admin/users/{id}/role.
func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	user, err := h.users.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user role changed by admin",
		"user_id", user.ID,
		"role", user.Role,
		"key_prefix", adminPrefix(r),
	)
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// ListUsers handles GET /api/admin/users?role={role}. The role defaults to admin.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		role = model.RoleAdmin
	}
	if !model.IsValidRole(role) {
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", service.ErrInvalidRole.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.lister.ListUsersByRole(ctx, role)
	if err != nil {
		h.logger.Error("failed to list users", "role", role, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// StatsResponse represents operational statistics.
type StatsResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Timestamp: time.Now().UTC(),
		Service:   "walletshop",
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

func adminPrefix(r *http.Request) string {
	if admin := auth.AdminFromContext(r.Context()); admin != nil {
		return admin.KeyPrefix
	}
	return ""
}
