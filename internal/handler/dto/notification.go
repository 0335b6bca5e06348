package dto

import "github.com/walletshop/walletshop/internal/model"

// SendNotificationRequest is the body of POST /api/notifications/send.
type SendNotificationRequest struct {
	UserIDs []string `json:"userIds"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Icon    string   `json:"icon,omitempty"`
	Badge   string   `json:"badge,omitempty"`
}

// ToModel converts the request to a domain notification.
func (r SendNotificationRequest) ToModel() model.Notification {
	return model.Notification{
		RecipientIDs: r.UserIDs,
		Title:        r.Title,
		Body:         r.Body,
		Icon:         r.Icon,
		Badge:        r.Badge,
	}
}

// SendToAdminsRequest is the body of POST /api/notifications/send-to-admins.
type SendToAdminsRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// ToModel converts the request to a domain admin notification.
func (r SendToAdminsRequest) ToModel() model.AdminNotification {
	return model.AdminNotification{Title: r.Title, Body: r.Body, Icon: r.Icon}
}

// BindIdentityRequest is the body of POST /api/notifications/identity.
type BindIdentityRequest struct {
	SubscriberID string `json:"subscriberId"`
	UserID       string `json:"userId"`
	Email        string `json:"email,omitempty"`
}

// NotificationResponse is returned by the send endpoints on success.
type NotificationResponse struct {
	Success    bool   `json:"success"`
	ID         string `json:"id,omitempty"`
	Recipients int    `json:"recipients"`
}

// AcceptedResponse acknowledges detached work.
type AcceptedResponse struct {
	Accepted bool `json:"accepted"`
}
