package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/store"
)

func setupTestEngine(t *testing.T) (*Engine, *store.Repository) {
	t.Helper()

	repo, err := store.NewRepository(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return NewEngine(repo), repo
}

func createTestAccount(t *testing.T, repo *store.Repository, email string) *store.Account {
	t.Helper()

	account, err := repo.CreateAccount(context.Background(), &store.Account{
		Name:         "Tester",
		Email:        email,
		PasswordHash: "irrelevant",
	})
	require.NoError(t, err)
	return account
}

func TestEngine_Create(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	account := createTestAccount(t, repo, "create@example.com")

	task, err := engine.Create(ctx, account, CreateParams{Description: "  buy milk  "})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, account.ID, task.OwnerID)
	assert.Equal(t, "buy milk", task.Description)
	assert.False(t, task.IsCompleted)
}

func TestEngine_Create_MissingDescription(t *testing.T) {
	engine, repo := setupTestEngine(t)
	account := createTestAccount(t, repo, "nodesc@example.com")

	_, err := engine.Create(context.Background(), account, CreateParams{Description: "   "})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestEngine_Get_OwnershipScoped(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	owner := createTestAccount(t, repo, "owner@example.com")
	intruder := createTestAccount(t, repo, "intruder@example.com")

	task, err := engine.Create(ctx, owner, CreateParams{Description: "private"})
	require.NoError(t, err)

	got, err := engine.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	// Another account's probe gets NotFound, never Forbidden: existence
	// must not leak across tenants.
	_, err = engine.Get(ctx, intruder, task.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = engine.Get(ctx, owner, "no-such-id")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestEngine_Update(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	account := createTestAccount(t, repo, "update@example.com")

	task, err := engine.Create(ctx, account, CreateParams{Description: "draft"})
	require.NoError(t, err)

	description := "final"
	completed := true
	updated, err := engine.Update(ctx, account, task.ID, &Patch{
		Description: &description,
		IsCompleted: &completed,
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Description)
	assert.True(t, updated.IsCompleted)

	// Partial patch leaves the other field alone.
	incomplete := false
	updated, err = engine.Update(ctx, account, task.ID, &Patch{IsCompleted: &incomplete})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Description)
	assert.False(t, updated.IsCompleted)
}

func TestEngine_Update_CrossTenant(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	owner := createTestAccount(t, repo, "uowner@example.com")
	intruder := createTestAccount(t, repo, "uintruder@example.com")

	task, err := engine.Create(ctx, owner, CreateParams{Description: "mine"})
	require.NoError(t, err)

	description := "hijacked"
	_, err = engine.Update(ctx, intruder, task.ID, &Patch{Description: &description})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	// The task is untouched.
	got, err := engine.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Description)
}

func TestEngine_Delete(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	owner := createTestAccount(t, repo, "downer@example.com")
	intruder := createTestAccount(t, repo, "dintruder@example.com")

	task, err := engine.Create(ctx, owner, CreateParams{Description: "ephemeral"})
	require.NoError(t, err)

	err = engine.Delete(ctx, intruder, task.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	require.NoError(t, engine.Delete(ctx, owner, task.ID))

	err = engine.Delete(ctx, owner, task.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestEngine_List_ScopedToOwner(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	alice := createTestAccount(t, repo, "alice@example.com")
	bob := createTestAccount(t, repo, "bob@example.com")

	_, err := engine.Create(ctx, alice, CreateParams{Description: "alice task"})
	require.NoError(t, err)
	_, err = engine.Create(ctx, bob, CreateParams{Description: "bob task"})
	require.NoError(t, err)

	items, meta, err := engine.List(ctx, alice, ParseListQuery("", "", "", ""))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "alice task", items[0].Description)
	assert.Equal(t, DefaultLimit, meta.Limit)
	assert.Equal(t, 0, meta.Skip)
}

func TestEngine_List_Pagination(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	account := createTestAccount(t, repo, "page@example.com")

	base := time.Now().Add(-time.Hour)
	names := []string{"one", "two", "three", "four", "five"}
	for i, name := range names {
		_, err := repo.CreateTask(ctx, &store.Task{
			OwnerID:     account.ID,
			Description: name,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	items, meta, err := engine.List(ctx, account, ParseListQuery("", "2", "1", ""))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Description)
	assert.Equal(t, "three", items[1].Description)
	assert.Equal(t, 2, meta.Limit)
	assert.Equal(t, 1, meta.Skip)
}

func TestEngine_List_CompletionFilterAndSort(t *testing.T) {
	engine, repo := setupTestEngine(t)
	ctx := context.Background()
	account := createTestAccount(t, repo, "filter@example.com")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		_, err := repo.CreateTask(ctx, &store.Task{
			OwnerID:     account.ID,
			Description: []string{"a", "b", "c", "d"}[i],
			IsCompleted: i < 2,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	items, _, err := engine.List(ctx, account, ParseListQuery("true", "", "", ""))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = engine.List(ctx, account, ParseListQuery("false", "", "", ""))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = engine.List(ctx, account, ParseListQuery("", "", "", "createdAt:desc"))
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "d", items[0].Description)
}
