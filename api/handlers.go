package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskforge/taskforge/pkg/accounts"
	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/tasks"
)

// handleError maps a service error onto its HTTP status. Storage failures
// stay opaque to the client and are logged server-side instead.
func (s *Server) handleError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", err, map[string]interface{}{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		})
	}
	c.JSON(status, ErrorResponse{Error: apperrors.PublicMessage(err)})
}

// healthCheck reports server and storage status.
func (s *Server) healthCheck(c *gin.Context) {
	checks := map[string]string{"database": "ok"}
	status := "healthy"

	if err := s.repo.HealthCheck(); err != nil {
		checks["database"] = "unavailable"
		status = "unhealthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Account handlers

func (s *Server) register(c *gin.Context) {
	var params accounts.RegisterParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, token, err := s.accounts.Register(c.Request.Context(), params)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		User:  accounts.PublicView(account),
		Token: token,
	})
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, token, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:  accounts.PublicView(account),
		Token: token,
	})
}

func (s *Server) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, accounts.PublicView(currentAccount(c)))
}

func (s *Server) updateProfile(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	patch, err := accounts.ParseProfilePatch(body)
	if err != nil {
		s.handleError(c, err)
		return
	}

	account, err := s.accounts.UpdateProfile(c.Request.Context(), currentAccount(c), patch)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts.PublicView(account))
}

func (s *Server) deleteAccount(c *gin.Context) {
	view, err := s.accounts.DeleteAccount(c.Request.Context(), currentAccount(c))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.accounts.Logout(c.Request.Context(), currentAccount(c), currentToken(c)); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (s *Server) logoutAll(c *gin.Context) {
	if err := s.accounts.LogoutAll(c.Request.Context(), currentAccount(c)); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (s *Server) changePassword(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	change, err := accounts.ParsePasswordChange(body)
	if err != nil {
		s.handleError(c, err)
		return
	}

	err = s.accounts.ChangePassword(c.Request.Context(), currentAccount(c), change.OldPassword, change.NewPassword)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// Task handlers

func (s *Server) createTask(c *gin.Context) {
	var params tasks.CreateParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), currentAccount(c), params)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (s *Server) listTasks(c *gin.Context) {
	query := tasks.ParseListQuery(
		c.Query("isCompleted"),
		c.Query("limit"),
		c.Query("skip"),
		c.Query("sortBy"),
	)

	items, meta, err := s.tasks.List(c.Request.Context(), currentAccount(c), query)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, TaskListResponse{Data: items, MetaInfo: meta})
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), currentAccount(c), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	patch, err := tasks.ParsePatch(body)
	if err != nil {
		s.handleError(c, err)
		return
	}

	task, err := s.tasks.Update(c.Request.Context(), currentAccount(c), c.Param("id"), patch)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), currentAccount(c), c.Param("id")); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
