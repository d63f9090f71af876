package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Account operations
	SaveAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]*Account, error)

	// Transaction operations
	SaveTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, txID string) (*Transaction, error)

	// GetTransactionsByAccount returns transactions since the given time,
	// ordered by date ascending (the order the engine processes them in).
	GetTransactionsByAccount(ctx context.Context, accountID string, since time.Time) ([]Transaction, error)

	// Rule catalog operations
	SaveFraudRule(ctx context.Context, rule *FraudRule) error
	ListFraudRules(ctx context.Context) ([]*FraudRule, error)
	SaveCategoryRule(ctx context.Context, rule *CategoryRule) error
	ListCategoryRules(ctx context.Context) ([]*CategoryRule, error)

	// Merchant directory operations
	SaveMerchant(ctx context.Context, merchant *MerchantRecord) error
	ListMerchants(ctx context.Context) ([]*MerchantRecord, error)

	// Alert operations
	SaveAlert(ctx context.Context, alert *FraudAlert) error
	UpdateAlert(ctx context.Context, alert *FraudAlert) error
	ListAlertsByAccount(ctx context.Context, accountID string) ([]*FraudAlert, error)
	CountOpenAlertsByUser(ctx context.Context, userID string) (int, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
