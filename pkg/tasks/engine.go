// Package tasks is the ownership-scoped task query engine. Every operation
// is bound to the authenticated account; a task owned by someone else is
// indistinguishable from one that does not exist.
package tasks

import (
	"context"
	"strings"

	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/store"
)

// Engine executes owner-scoped task operations against the repository.
type Engine struct {
	repo *store.Repository
}

// NewEngine creates a new task query engine.
func NewEngine(repo *store.Repository) *Engine {
	return &Engine{repo: repo}
}

// CreateParams are the client-settable task fields. The owner is never one
// of them; it always comes from the authenticated account.
type CreateParams struct {
	Description string `json:"description"`
	IsCompleted bool   `json:"isCompleted"`
}

// Meta echoes the applied pagination back to the client.
type Meta struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// Create stores a new task owned by the account.
func (e *Engine) Create(ctx context.Context, account *store.Account, params CreateParams) (*store.Task, error) {
	description := strings.TrimSpace(params.Description)
	if description == "" {
		return nil, apperrors.NewMissingFieldError("description")
	}

	task := &store.Task{
		OwnerID:     account.ID,
		Description: description,
		IsCompleted: params.IsCompleted,
	}

	return e.repo.CreateTask(ctx, task)
}

// List returns the account's tasks matching the query, plus pagination meta.
func (e *Engine) List(ctx context.Context, account *store.Account, query ListQuery) ([]store.Task, Meta, error) {
	filter := query.filter()

	items, err := e.repo.ListOwnedTasks(ctx, account.ID, filter)
	if err != nil {
		return nil, Meta{}, err
	}

	return items, Meta{Limit: filter.Limit, Skip: filter.Skip}, nil
}

// Get retrieves one task scoped by both ID and owner. Wrong ID and wrong
// owner both produce NotFound, never Forbidden.
func (e *Engine) Get(ctx context.Context, account *store.Account, taskID string) (*store.Task, error) {
	task, err := e.repo.GetOwnedTask(ctx, account.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewNotFoundError("task")
	}
	return task, nil
}

// Update applies an allow-listed patch to an owned task.
func (e *Engine) Update(ctx context.Context, account *store.Account, taskID string, patch *Patch) (*store.Task, error) {
	task, err := e.Get(ctx, account, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, apperrors.NewMissingFieldError("description")
		}
		task.Description = description
	}

	if patch.IsCompleted != nil {
		task.IsCompleted = *patch.IsCompleted
	}

	if err := e.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes an owned task. No row matched means NotFound.
func (e *Engine) Delete(ctx context.Context, account *store.Account, taskID string) error {
	deleted, err := e.repo.DeleteOwnedTask(ctx, account.ID, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFoundError("task")
	}
	return nil
}
