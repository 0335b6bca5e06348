// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SendFailure is the error shape of the notification and email endpoints.
type SendFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
