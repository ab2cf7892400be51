package repositories

import (
	"context"
	"errors"

	"github.com/sm4rtm4art/go-api-template/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a new user and sets its ID
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List retrieves all users with pagination
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// UpdatePassword replaces a user's password hash
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error

	// Delete removes a user
	Delete(ctx context.Context, id int64) error
}

// ContentRepository handles content data operations
type ContentRepository interface {
	// Create inserts a new content record and sets its ID
	Create(ctx context.Context, content *models.Content) error

	// GetByID retrieves content by ID
	GetByID(ctx context.Context, id int64) (*models.Content, error)

	// GetBySlug retrieves content by slug
	GetBySlug(ctx context.Context, slug string) (*models.Content, error)

	// List retrieves all content with pagination
	List(ctx context.Context, limit, offset int) ([]*models.Content, error)

	// Update replaces a content record
	Update(ctx context.Context, content *models.Content) error

	// Delete removes a content record
	Delete(ctx context.Context, id int64) error
}

// Repositories bundles all repository instances
type Repositories struct {
	Users   UserRepository
	Content ContentRepository
}
