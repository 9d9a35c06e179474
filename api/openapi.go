package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getOpenAPISpec returns the OpenAPI 3.1.0 specification for the taskforge API.
func (s *Server) getOpenAPISpec(c *gin.Context) {
	spec := map[string]interface{}{
		"openapi": "3.1.0",
		"info": map[string]interface{}{
			"title":       "taskforge REST API",
			"description": "A multi-tenant task-tracking API with bearer-token authentication.",
			"version":     "1.0.0",
		},
		"servers": []map[string]interface{}{
			{
				"url":         "http://localhost:8080",
				"description": "Development server",
			},
		},
		"paths":      s.getOpenAPIPaths(),
		"components": s.getOpenAPIComponents(),
	}

	c.JSON(http.StatusOK, spec)
}

// getOpenAPIPaths returns all API paths for the OpenAPI spec.
func (s *Server) getOpenAPIPaths() map[string]interface{} {
	bearer := []map[string][]string{{"bearerAuth": {}}}

	return map[string]interface{}{
		"/health": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Health Check",
				"tags":    []string{"Health"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Server is healthy"},
					"503": map[string]interface{}{"description": "Storage is unavailable"},
				},
			},
		},
		"/users": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Register",
				"description": "Create an account and issue the initial session token",
				"tags":        []string{"Users"},
				"responses": map[string]interface{}{
					"201": map[string]interface{}{"description": "Account created"},
					"400": map[string]interface{}{"description": "Validation error"},
				},
			},
		},
		"/users/login": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Login",
				"description": "Verify credentials and issue an additional session token",
				"tags":        []string{"Users"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Logged in"},
					"401": map[string]interface{}{"description": "Bad credentials"},
				},
			},
		},
		"/users/me": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":  "Get profile",
				"tags":     []string{"Users"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Public account view"},
				},
			},
			"patch": map[string]interface{}{
				"summary":     "Update profile",
				"description": "Patch name, age, or email; any other field rejects the request",
				"tags":        []string{"Users"},
				"security":    bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Updated public account view"},
					"400": map[string]interface{}{"description": "Validation error"},
				},
			},
			"delete": map[string]interface{}{
				"summary":     "Delete account",
				"description": "Deletes the account and cascades to its tasks",
				"tags":        []string{"Users"},
				"security":    bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Deleted account's public view"},
				},
			},
		},
		"/users/logout": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":  "Logout current session",
				"tags":     []string{"Users"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Session token revoked"},
				},
			},
		},
		"/users/logoutAll": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":  "Logout everywhere",
				"tags":     []string{"Users"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "All session tokens revoked"},
				},
			},
		},
		"/users/password": map[string]interface{}{
			"put": map[string]interface{}{
				"summary":  "Change password",
				"tags":     []string{"Users"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Password changed"},
					"403": map[string]interface{}{"description": "Old password incorrect"},
				},
			},
		},
		"/tasks": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":  "Create task",
				"tags":     []string{"Tasks"},
				"security": bearer,
				"responses": map[string]interface{}{
					"201": map[string]interface{}{"description": "Task created"},
				},
			},
			"get": map[string]interface{}{
				"summary":     "List tasks",
				"description": "Supports isCompleted, limit, skip, and sortBy=field:asc|desc",
				"tags":        []string{"Tasks"},
				"security":    bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Paginated task list"},
				},
			},
		},
		"/tasks/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":  "Get task",
				"tags":     []string{"Tasks"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Task"},
					"404": map[string]interface{}{"description": "Task not found or not owned"},
				},
			},
			"patch": map[string]interface{}{
				"summary":  "Update task",
				"tags":     []string{"Tasks"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Updated task"},
					"400": map[string]interface{}{"description": "Validation error"},
					"404": map[string]interface{}{"description": "Task not found or not owned"},
				},
			},
			"delete": map[string]interface{}{
				"summary":  "Delete task",
				"tags":     []string{"Tasks"},
				"security": bearer,
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Task deleted"},
					"404": map[string]interface{}{"description": "Task not found or not owned"},
				},
			},
		},
	}
}

// getOpenAPIComponents returns shared schema components.
func (s *Server) getOpenAPIComponents() map[string]interface{} {
	return map[string]interface{}{
		"securitySchemes": map[string]interface{}{
			"bearerAuth": map[string]interface{}{
				"type":         "http",
				"scheme":       "bearer",
				"bearerFormat": "JWT",
			},
		},
		"schemas": map[string]interface{}{
			"PublicAccount": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":         map[string]interface{}{"type": "string"},
					"name":       map[string]interface{}{"type": "string"},
					"age":        map[string]interface{}{"type": "integer", "minimum": 0},
					"email":      map[string]interface{}{"type": "string", "format": "email"},
					"created_at": map[string]interface{}{"type": "string", "format": "date-time"},
					"updated_at": map[string]interface{}{"type": "string", "format": "date-time"},
				},
			},
			"Task": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":           map[string]interface{}{"type": "string"},
					"owner_id":     map[string]interface{}{"type": "string"},
					"description":  map[string]interface{}{"type": "string"},
					"is_completed": map[string]interface{}{"type": "boolean"},
					"created_at":   map[string]interface{}{"type": "string", "format": "date-time"},
					"updated_at":   map[string]interface{}{"type": "string", "format": "date-time"},
				},
			},
			"ErrorResponse": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"error": map[string]interface{}{"type": "string"},
				},
			},
		},
	}
}
