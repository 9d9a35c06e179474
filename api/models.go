package api

import (
	"github.com/taskforge/taskforge/pkg/accounts"
	"github.com/taskforge/taskforge/pkg/store"
	"github.com/taskforge/taskforge/pkg/tasks"
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on registration and login.
type AuthResponse struct {
	User  *accounts.PublicAccount `json:"user"`
	Token string                  `json:"token"`
}

// TaskListResponse is the paginated task listing.
type TaskListResponse struct {
	Data     []store.Task `json:"data"`
	MetaInfo tasks.Meta   `json:"metaInfo"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports server and storage status.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
