package dto

import "github.com/walletshop/walletshop/internal/model"

// SendEmailRequest is the body of POST /api/send-email.
// The credentials are used for one SMTP session and never stored.
type SendEmailRequest struct {
	GmailUser     string   `json:"gmailUser"`
	GmailPassword string   `json:"gmailPassword"`
	To            []string `json:"to"`
	Subject       string   `json:"subject"`
	HTML          string   `json:"html"`
}

// ToModel converts the request to a domain email message.
func (r SendEmailRequest) ToModel() model.EmailMessage {
	return model.EmailMessage{
		Username: r.GmailUser,
		Password: r.GmailPassword,
		To:       r.To,
		Subject:  r.Subject,
		HTML:     r.HTML,
	}
}

// SendEmailResponse is returned when the transport accepts the message.
type SendEmailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}
