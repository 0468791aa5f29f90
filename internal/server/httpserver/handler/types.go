package handler

import (
	"time"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// Reply strings of the log-on, lock and unlock actions.
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Envelope is the JSON response format of the bundled handlers.
type Envelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   string `json:"details,omitempty"`
}

// NewEnvelope creates a success envelope.
func NewEnvelope(requestID string, data any) *Envelope {
	return &Envelope{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorEnvelope creates an error envelope.
func NewErrorEnvelope(requestID, code, message, details string) *Envelope {
	return &Envelope{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// LogOnRequest is the body of POST /auth/log-on.
type LogOnRequest struct {
	LogonName string `json:"logonName"`
	Password  string `json:"password"`
}

// WhoAmIResponse describes the session of the caller.
type WhoAmIResponse struct {
	UserID        int64               `json:"user_id"`
	Name          string              `json:"name"`
	Guest         bool                `json:"guest"`
	Authenticated bool                `json:"authenticated"`
	Permissions   []domain.Permission `json:"permissions"`
	SessionStart  time.Time           `json:"session_start"`
	ExpiresAt     time.Time           `json:"expires_at"`
}

// UserRequest is the body of manage/user/create and manage/user/modify.
// An empty password leaves the stored hash unchanged on modify.
type UserRequest struct {
	LogonName string  `json:"logon_name"`
	Password  string  `json:"password,omitempty"`
	Active    bool    `json:"active"`
	RoleIDs   []int64 `json:"role_ids,omitempty"`
}

// RoleRequest is the body of manage/role/create and manage/role/modify.
type RoleRequest struct {
	Name        string              `json:"name"`
	Permissions []domain.Permission `json:"permissions,omitempty"`
}

// RemoveResponse is returned by the remove actions.
type RemoveResponse struct {
	ID      int64 `json:"id"`
	Removed bool  `json:"removed"`
}

// HealthResponse is the body of the health handler.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Time     string `json:"time"`
	Sessions int    `json:"sessions,omitempty"`
	Error    string `json:"error,omitempty"`
}
