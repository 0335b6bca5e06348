package model

// EmailMessage is one outbound message relayed with caller-supplied credentials.
type EmailMessage struct {
	Username string   `json:"-"`
	Password string   `json:"-"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	HTML     string   `json:"html"`
}

// EmailResult is the tagged outcome of an email relay.
type EmailResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}
