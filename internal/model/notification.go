package model

// Notification is a push message addressed to logical users.
type Notification struct {
	RecipientIDs []string `json:"user_ids"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Icon         string   `json:"icon,omitempty"`
	Badge        string   `json:"badge,omitempty"`
}

// AdminNotification is a push message addressed to every admin.
type AdminNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// DispatchResult is the tagged outcome of a notification dispatch.
// Failures are carried as values, never as errors.
type DispatchResult struct {
	Success    bool   `json:"success"`
	ID         string `json:"id,omitempty"`
	Recipients int    `json:"recipients,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IdentityBinding associates a push subscriber with a local user.
type IdentityBinding struct {
	SubscriberID string `json:"subscriber_id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email,omitempty"`
}
