package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskforge/taskforge/pkg/apperrors"
)

// Repository provides data access for accounts, session tokens, and tasks.
// The underlying connection pool is the only shared resource between requests.
type Repository struct {
	db *gorm.DB
}

// TaskFilter restricts and orders a task listing. OwnerID is always applied
// by the repository; callers cannot widen the scope.
type TaskFilter struct {
	IsCompleted *bool
	Limit       int
	Skip        int
	SortColumn  string
	Descending  bool
}

// NewRepository opens the SQLite database at path and migrates the schema.
func NewRepository(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// migrate runs database migrations.
func (r *Repository) migrate() error {
	return r.db.AutoMigrate(
		&Account{},
		&SessionToken{},
		&Task{},
	)
}

// Account operations

// CreateAccount creates a new account.
func (r *Repository) CreateAccount(ctx context.Context, account *Account) (*Account, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetAccount retrieves an account by ID. Returns nil without error when absent.
func (r *Repository) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by email. Returns nil without error when absent.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, nil
}

// UpdateAccount persists changes to an account.
func (r *Repository) UpdateAccount(ctx context.Context, account *Account) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// DeleteAccount removes an account row. Owned tasks and tokens are deleted
// separately by the caller; the two steps are not atomic.
func (r *Repository) DeleteAccount(ctx context.Context, accountID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", accountID).Delete(&Account{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	// Losing the race against a concurrent delete is a 404, not a 500.
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("account")
	}
	return nil
}

// Session token operations

// CreateSessionToken records a newly issued token for an account.
func (r *Repository) CreateSessionToken(ctx context.Context, token *SessionToken) (*SessionToken, error) {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}
	return token, nil
}

// GetSessionToken retrieves a live token row by its exact token string.
// Returns nil without error when no account holds the token.
func (r *Repository) GetSessionToken(ctx context.Context, token string) (*SessionToken, error) {
	var record SessionToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session token: %w", err)
	}
	return &record, nil
}

// DeleteSessionToken removes exactly the matching token for the account.
// Idempotent: deleting an absent token is not an error.
func (r *Repository) DeleteSessionToken(ctx context.Context, accountID, token string) error {
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND token = ?", accountID, token).
		Delete(&SessionToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session token: %w", result.Error)
	}
	return nil
}

// DeleteAccountSessionTokens clears the entire token set for an account.
func (r *Repository) DeleteAccountSessionTokens(ctx context.Context, accountID string) error {
	result := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&SessionToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete account session tokens: %w", result.Error)
	}
	return nil
}

// CountAccountSessionTokens returns the number of live tokens for an account.
func (r *Repository) CountAccountSessionTokens(ctx context.Context, accountID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&SessionToken{}).
		Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count session tokens: %w", err)
	}
	return count, nil
}

// PurgeExpiredSessionTokens removes tokens whose expiry has passed.
func (r *Repository) PurgeExpiredSessionTokens(ctx context.Context) error {
	result := r.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&SessionToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge expired session tokens: %w", result.Error)
	}
	return nil
}

// Task operations

// CreateTask creates a new task.
func (r *Repository) CreateTask(ctx context.Context, task *Task) (*Task, error) {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetOwnedTask retrieves a task scoped by both task ID and owner. A wrong ID
// and a wrong owner are indistinguishable: both return nil without error.
func (r *Repository) GetOwnedTask(ctx context.Context, ownerID, taskID string) (*Task, error) {
	var task Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", taskID, ownerID).
		First(&task).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// ListOwnedTasks returns the owner's tasks matching the filter.
func (r *Repository) ListOwnedTasks(ctx context.Context, ownerID string, filter TaskFilter) ([]Task, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)

	if filter.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filter.IsCompleted)
	}

	order := filter.SortColumn
	if order == "" {
		order = "created_at"
	}
	if filter.Descending {
		order += " DESC"
	}

	var tasks []Task
	if err := query.Order(order).Limit(filter.Limit).Offset(filter.Skip).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask persists changes to a task.
func (r *Repository) UpdateTask(ctx context.Context, task *Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteOwnedTask removes a task scoped by owner. Reports whether a row matched.
func (r *Repository) DeleteOwnedTask(ctx context.Context, ownerID, taskID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", taskID, ownerID).
		Delete(&Task{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteOwnerTasks removes every task owned by an account. Used by the
// account-deletion cascade.
func (r *Repository) DeleteOwnerTasks(ctx context.Context, ownerID string) error {
	result := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&Task{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete owner tasks: %w", result.Error)
	}
	return nil
}

// CountOwnerTasks returns the number of tasks owned by an account.
func (r *Repository) CountOwnerTasks(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Task{}).
		Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// Health check operation

// HealthCheck performs a database health check.
func (r *Repository) HealthCheck() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
