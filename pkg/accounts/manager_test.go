package accounts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/credentials"
	"github.com/taskforge/taskforge/pkg/store"
	"github.com/taskforge/taskforge/pkg/tokens"
)

func setupTestManager(t *testing.T) (*Manager, *store.Repository, *tokens.Service) {
	t.Helper()

	repo, err := store.NewRepository(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	creds := credentials.NewStore(4)
	tokenService := tokens.NewService("accounts-test-secret", 7*24*time.Hour, repo)

	return NewManager(repo, creds, tokenService), repo, tokenService
}

func registerTestAccount(t *testing.T, manager *Manager, email string) (*store.Account, string) {
	t.Helper()

	account, token, err := manager.Register(context.Background(), RegisterParams{
		Name:     "Tester",
		Email:    email,
		Password: "sekret99",
	})
	require.NoError(t, err)
	return account, token
}

func TestManager_Register(t *testing.T) {
	manager, _, tokenService := setupTestManager(t)
	ctx := context.Background()

	age := 30
	account, token, err := manager.Register(ctx, RegisterParams{
		Name:     "  Ada Lovelace  ",
		Age:      &age,
		Email:    "Ada@Example.com",
		Password: "sekret99",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "Ada Lovelace", account.Name)
	assert.Equal(t, "ada@example.com", account.Email)
	require.NotNil(t, account.Age)
	assert.Equal(t, 30, *account.Age)
	assert.NotEqual(t, "sekret99", account.PasswordHash)

	// The initial token is live immediately.
	resolved, err := tokenService.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestManager_Register_Invalid(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"missing name", RegisterParams{Email: "a@b.com", Password: "sekret99"}},
		{"bad email", RegisterParams{Name: "A", Email: "not-an-email", Password: "sekret99"}},
		{"short password", RegisterParams{Name: "A", Email: "a@b.com", Password: "abc"}},
		{"forbidden password", RegisterParams{Name: "A", Email: "a@b.com", Password: "Password1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := manager.Register(ctx, tt.params)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}

	negative := -1
	_, _, err := manager.Register(ctx, RegisterParams{
		Name: "A", Age: &negative, Email: "neg@b.com", Password: "sekret99",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestManager_Register_DuplicateEmail(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	registerTestAccount(t, manager, "dup@example.com")

	_, _, err := manager.Register(ctx, RegisterParams{
		Name:     "Second",
		Email:    "dup@example.com",
		Password: "sekret99",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestManager_Login(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	_, registrationToken := registerTestAccount(t, manager, "login@example.com")

	account, loginToken, err := manager.Login(ctx, "login@example.com", "sekret99")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", account.Email)

	// Each login issues a fresh token; the registration one stays valid.
	assert.NotEqual(t, registrationToken, loginToken)
}

func TestManager_Login_UnknownEmail(t *testing.T) {
	manager, _, _ := setupTestManager(t)

	_, _, err := manager.Login(context.Background(), "ghost@example.com", "sekret99")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestManager_Login_WrongPassword(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	registerTestAccount(t, manager, "wrongpw@example.com")

	_, _, err := manager.Login(context.Background(), "wrongpw@example.com", "incorrect")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestManager_Logout_RevokesOnlyPresentedToken(t *testing.T) {
	manager, _, tokenService := setupTestManager(t)
	ctx := context.Background()

	account, first := registerTestAccount(t, manager, "devices@example.com")
	_, second, err := manager.Login(ctx, "devices@example.com", "sekret99")
	require.NoError(t, err)

	require.NoError(t, manager.Logout(ctx, account, first))

	_, err = tokenService.Resolve(ctx, first)
	assert.Error(t, err)
	_, err = tokenService.Resolve(ctx, second)
	assert.NoError(t, err)
}

func TestManager_LogoutAll(t *testing.T) {
	manager, _, tokenService := setupTestManager(t)
	ctx := context.Background()

	account, first := registerTestAccount(t, manager, "all@example.com")
	_, second, err := manager.Login(ctx, "all@example.com", "sekret99")
	require.NoError(t, err)

	require.NoError(t, manager.LogoutAll(ctx, account))

	_, err = tokenService.Resolve(ctx, first)
	assert.Error(t, err)
	_, err = tokenService.Resolve(ctx, second)
	assert.Error(t, err)
}

func TestManager_UpdateProfile(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	account, _ := registerTestAccount(t, manager, "update@example.com")

	name := "Renamed"
	age := 44
	email := "Renamed@Example.com"
	updated, err := manager.UpdateProfile(ctx, account, &ProfilePatch{
		Name:   &name,
		Age:    &age,
		AgeSet: true,
		Email:  &email,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed@example.com", updated.Email)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 44, *updated.Age)
}

func TestManager_UpdateProfile_Invalid(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	account, _ := registerTestAccount(t, manager, "badpatch@example.com")

	badEmail := "nope"
	_, err := manager.UpdateProfile(ctx, account, &ProfilePatch{Email: &badEmail})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	negative := -3
	_, err = manager.UpdateProfile(ctx, account, &ProfilePatch{Age: &negative, AgeSet: true})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestManager_UpdateProfile_DuplicateEmail(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	registerTestAccount(t, manager, "taken@example.com")
	account, _ := registerTestAccount(t, manager, "mover@example.com")

	taken := "taken@example.com"
	_, err := manager.UpdateProfile(ctx, account, &ProfilePatch{Email: &taken})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestManager_ChangePassword(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	account, _ := registerTestAccount(t, manager, "chpw@example.com")

	require.NoError(t, manager.ChangePassword(ctx, account, "sekret99", "newsekret"))

	// Old password no longer works, new one does.
	_, _, err := manager.Login(ctx, "chpw@example.com", "sekret99")
	assert.Error(t, err)
	_, _, err = manager.Login(ctx, "chpw@example.com", "newsekret")
	assert.NoError(t, err)
}

func TestManager_ChangePassword_WrongOldPassword(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	account, _ := registerTestAccount(t, manager, "forbid@example.com")

	err := manager.ChangePassword(ctx, account, "not-the-password", "newsekret")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestManager_ChangePassword_PolicyStillApplies(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	ctx := context.Background()

	account, _ := registerTestAccount(t, manager, "policy@example.com")

	err := manager.ChangePassword(ctx, account, "sekret99", "Password1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestManager_DeleteAccount_Cascades(t *testing.T) {
	manager, repo, tokenService := setupTestManager(t)
	ctx := context.Background()

	account, token := registerTestAccount(t, manager, "cascade@example.com")

	for i := 0; i < 3; i++ {
		_, err := repo.CreateTask(ctx, &store.Task{OwnerID: account.ID, Description: "owned"})
		require.NoError(t, err)
	}

	view, err := manager.DeleteAccount(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, "cascade@example.com", view.Email)

	count, err := repo.CountOwnerTasks(ctx, account.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// Sessions die with the account.
	_, err = tokenService.Resolve(ctx, token)
	assert.Error(t, err)

	got, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPublicView_StripsCredentialMaterial(t *testing.T) {
	manager, _, _ := setupTestManager(t)
	account, _ := registerTestAccount(t, manager, "public@example.com")

	view := PublicView(account)
	assert.Equal(t, account.ID, view.ID)
	assert.Equal(t, account.Email, view.Email)
	// PublicAccount has no hash or token fields at all; spot-check identity data only.
	assert.NotEmpty(t, account.PasswordHash)
}
