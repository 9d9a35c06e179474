package tasks

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/store"
)

const (
	// DefaultLimit is applied when the client sends no usable limit.
	DefaultLimit = 20

	sortDescToken = "desc"
)

// sortColumns is the allowlist of sortable columns. Unknown fields fall back
// to creation order rather than reaching the database.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"isCompleted": "is_completed",
}

// ListQuery is the parsed form of the task-listing query string.
type ListQuery struct {
	IsCompleted *bool
	Limit       int
	Skip        int
	SortColumn  string
	Descending  bool
}

// ParseListQuery builds a ListQuery from raw query parameters. Pagination
// input never errors: absent or non-numeric values fall back to defaults.
func ParseListQuery(isCompleted, limit, skip, sortBy string) ListQuery {
	query := ListQuery{
		Limit:      DefaultLimit,
		SortColumn: "created_at",
	}

	if isCompleted != "" {
		completed := isCompleted == "true"
		query.IsCompleted = &completed
	}

	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		query.Limit = n
	}

	if n, err := strconv.Atoi(skip); err == nil && n > 0 {
		query.Skip = n
	}

	if sortBy != "" {
		parts := strings.SplitN(sortBy, ":", 2)
		if column, ok := sortColumns[parts[0]]; ok {
			query.SortColumn = column
			query.Descending = len(parts) == 2 && parts[1] == sortDescToken
		}
	}

	return query
}

func (q ListQuery) filter() store.TaskFilter {
	return store.TaskFilter{
		IsCompleted: q.IsCompleted,
		Limit:       q.Limit,
		Skip:        q.Skip,
		SortColumn:  q.SortColumn,
		Descending:  q.Descending,
	}
}

// Patch is a validated partial update of the mutable task fields.
type Patch struct {
	Description *string
	IsCompleted *bool
}

// taskFields is the allowed key set for PATCH /tasks/:id.
var taskFields = map[string]bool{
	"description": true,
	"isCompleted": true,
}

// ParsePatch builds a Patch from a raw JSON body. Any key outside the
// allowed set rejects the whole patch.
func ParsePatch(body map[string]json.RawMessage) (*Patch, error) {
	if len(body) == 0 {
		return nil, apperrors.NewValidationError("no update fields provided")
	}

	for key := range body {
		if !taskFields[key] {
			return nil, apperrors.NewInvalidFieldError(key)
		}
	}

	patch := &Patch{}

	if raw, ok := body["description"]; ok {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil {
			return nil, apperrors.NewValidationError("description must be a string")
		}
		patch.Description = &description
	}

	if raw, ok := body["isCompleted"]; ok {
		var completed bool
		if err := json.Unmarshal(raw, &completed); err != nil {
			return nil, apperrors.NewValidationError("isCompleted must be a boolean")
		}
		patch.IsCompleted = &completed
	}

	return patch, nil
}
