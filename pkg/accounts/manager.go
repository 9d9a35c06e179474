// Package accounts orchestrates account registration, authentication,
// profile management, and deletion.
package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/credentials"
	"github.com/taskforge/taskforge/pkg/store"
	"github.com/taskforge/taskforge/pkg/tokens"
)

// Manager coordinates account operations against the credential store,
// token service, and repository.
type Manager struct {
	repo     *store.Repository
	creds    *credentials.Store
	tokens   *tokens.Service
	validate *validator.Validate
}

// NewManager creates a new account manager.
func NewManager(repo *store.Repository, creds *credentials.Store, tokenService *tokens.Service) *Manager {
	return &Manager{
		repo:     repo,
		creds:    creds,
		tokens:   tokenService,
		validate: validator.New(),
	}
}

// RegisterParams are the fields accepted at registration.
type RegisterParams struct {
	Name     string `json:"name"`
	Age      *int   `json:"age,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicAccount is the only account representation ever sent to a client.
// It carries neither the password hash nor the session token set.
type PublicAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicView strips credential material from an account.
func PublicView(account *store.Account) *PublicAccount {
	return &PublicAccount{
		ID:        account.ID,
		Name:      account.Name,
		Age:       account.Age,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

// Register validates the fields, creates the account with a hashed password,
// and issues the initial session token.
func (m *Manager) Register(ctx context.Context, params RegisterParams) (*store.Account, string, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, "", apperrors.NewMissingFieldError("name")
	}

	email, err := m.normalizeEmail(params.Email)
	if err != nil {
		return nil, "", err
	}

	if err := validateAge(params.Age); err != nil {
		return nil, "", err
	}

	existing, err := m.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", apperrors.NewConflictError("account with this email already exists")
	}

	// Explicit check-then-hash: the only place a registration password is hashed.
	hash, err := m.creds.Hash(params.Password)
	if err != nil {
		return nil, "", err
	}

	account := &store.Account{
		Name:         name,
		Age:          params.Age,
		Email:        email,
		PasswordHash: hash,
	}

	created, err := m.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, "", err
	}

	token, err := m.tokens.Issue(ctx, created.ID)
	if err != nil {
		return nil, "", err
	}

	return created, token, nil
}

// Login verifies the credentials and issues a new session token. Prior
// sessions remain valid.
func (m *Manager) Login(ctx context.Context, email, password string) (*store.Account, string, error) {
	account, err := m.repo.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if account == nil {
		return nil, "", apperrors.NewCredentialsError("account with this email not found")
	}

	if !m.creds.Verify(password, account.PasswordHash) {
		return nil, "", apperrors.NewCredentialsError("incorrect password")
	}

	token, err := m.tokens.Issue(ctx, account.ID)
	if err != nil {
		return nil, "", err
	}

	return account, token, nil
}

// Logout revokes only the presented session token.
func (m *Manager) Logout(ctx context.Context, account *store.Account, token string) error {
	return m.tokens.Revoke(ctx, account.ID, token)
}

// LogoutAll revokes every session token for the account.
func (m *Manager) LogoutAll(ctx context.Context, account *store.Account) error {
	return m.tokens.RevokeAll(ctx, account.ID)
}

// UpdateProfile applies an allow-listed patch to the account and re-validates
// the schema. The patch has already rejected foreign keys wholesale.
func (m *Manager) UpdateProfile(ctx context.Context, account *store.Account, patch *ProfilePatch) (*store.Account, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewMissingFieldError("name")
		}
		account.Name = name
	}

	if patch.AgeSet {
		if err := validateAge(patch.Age); err != nil {
			return nil, err
		}
		account.Age = patch.Age
	}

	if patch.Email != nil {
		email, err := m.normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if email != account.Email {
			existing, err := m.repo.GetAccountByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, apperrors.NewConflictError("account with this email already exists")
			}
		}
		account.Email = email
	}

	if err := m.repo.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// ChangePassword verifies the old password, then validates, hashes, and
// persists the new one. A wrong old password is a forbidden error, not a
// generic auth failure.
func (m *Manager) ChangePassword(ctx context.Context, account *store.Account, oldPassword, newPassword string) error {
	if !m.creds.Verify(oldPassword, account.PasswordHash) {
		return apperrors.NewForbiddenError("incorrect password")
	}

	hash, err := m.creds.Hash(newPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	return m.repo.UpdateAccount(ctx, account)
}

// DeleteAccount captures the public view, then deletes the account's tasks,
// session tokens, and finally the account itself. The steps are sequential
// and not atomic: a crash mid-way can leave orphaned rows.
func (m *Manager) DeleteAccount(ctx context.Context, account *store.Account) (*PublicAccount, error) {
	view := PublicView(account)

	if err := m.repo.DeleteOwnerTasks(ctx, account.ID); err != nil {
		return nil, err
	}
	if err := m.repo.DeleteAccountSessionTokens(ctx, account.ID); err != nil {
		return nil, err
	}
	if err := m.repo.DeleteAccount(ctx, account.ID); err != nil {
		return nil, err
	}

	return view, nil
}

// normalizeEmail trims, lowercases, and validates email syntax.
func (m *Manager) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := m.validate.Var(email, "required,email"); err != nil {
		return "", apperrors.NewValidationError("enter a valid email")
	}
	return email, nil
}

func validateAge(age *int) error {
	if age != nil && *age < 0 {
		return apperrors.NewValidationError("age should be positive")
	}
	return nil
}
