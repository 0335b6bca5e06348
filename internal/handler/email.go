package handler

import (
	"context"
	"net/http"

	"github.com/walletshop/walletshop/internal/handler/dto"
	"github.com/walletshop/walletshop/internal/mail"
	"github.com/walletshop/walletshop/internal/model"
)

// EmailSender relays one message and reports a tagged outcome.
type EmailSender interface {
	Send(ctx context.Context, msg model.EmailMessage) model.EmailResult
}

// EmailHandler handles POST /api/send-email.
type EmailHandler struct {
	sender EmailSender
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(sender EmailSender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

// Send handles POST /api/send-email.
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeSendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := req.ToModel()
	if _, err := mail.Validate(msg); err != nil {
		writeSendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.sender.Send(r.Context(), msg)
	if !result.Success {
		writeSendFailure(w, http.StatusBadGateway, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, dto.SendEmailResponse{Success: true, MessageID: result.MessageID})
}
