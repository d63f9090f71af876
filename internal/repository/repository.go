// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAccount stores or updates an account.
func (r *SQLRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	if account == nil || account.ID == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO accounts (id, user_id, account_type, balance, fees, home_country)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			account_type = excluded.account_type,
			balance = excluded.balance,
			fees = excluded.fees,
			home_country = excluded.home_country
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		account.ID, account.UserID, account.AccountType,
		account.Balance, account.Fees, account.HomeCountry,
	)
	return err
}

// GetAccount retrieves an account by ID.
func (r *SQLRepository) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, account_type, balance, fees, home_country
		FROM accounts
		WHERE id = ?
	`

	var account domain.Account
	var homeCountry sql.NullString

	err := r.db.QueryRowContext(ctx, r.rebind(query), accountID).Scan(
		&account.ID, &account.UserID, &account.AccountType,
		&account.Balance, &account.Fees, &homeCountry,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	account.HomeCountry = homeCountry.String
	return &account, nil
}

// ListAccountsByUser retrieves all accounts belonging to a user.
func (r *SQLRepository) ListAccountsByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	query := `
		SELECT id, user_id, account_type, balance, fees, home_country
		FROM accounts
		WHERE user_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		var homeCountry sql.NullString

		if err := rows.Scan(
			&account.ID, &account.UserID, &account.AccountType,
			&account.Balance, &account.Fees, &homeCountry,
		); err != nil {
			return nil, err
		}

		account.HomeCountry = homeCountry.String
		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}

// SaveTransaction stores or updates a transaction. A different transaction
// carrying the same (account, external) pair returns ErrDuplicate.
func (r *SQLRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}

	merchant, _ := json.Marshal(tx.Merchant)
	location, _ := json.Marshal(tx.Location)

	query := `
		INSERT INTO transactions (
			id, account_id, external_id, type, amount, currency,
			description, reference, category, date, value_date,
			merchant, location, payment_method, status, is_recurring, fraud_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			status = excluded.status,
			fraud_score = excluded.fraud_score
	`

	recurring := 0
	if tx.IsRecurring {
		recurring = 1
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, tx.AccountID, nullString(tx.ExternalID), tx.Type, tx.Amount, tx.Currency,
		tx.Description, tx.Reference, string(tx.Category), tx.Date, tx.ValueDate,
		jsonOrNull(merchant, tx.Merchant == nil), jsonOrNull(location, tx.Location == nil),
		tx.PaymentMethod, tx.Status, recurring, nullInt(tx.FraudScore),
	)
	if err != nil && isDuplicate(err) {
		return fmt.Errorf("%w: external id %s", ErrDuplicate, tx.ExternalID)
	}
	return err
}

// GetTransaction retrieves a transaction by ID.
func (r *SQLRepository) GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error) {
	query := transactionSelect + ` WHERE id = ?`

	row := r.db.QueryRowContext(ctx, r.rebind(query), txID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransactionsByAccount retrieves transactions since the given time,
// oldest first.
func (r *SQLRepository) GetTransactionsByAccount(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error) {
	query := transactionSelect + `
		WHERE account_id = ? AND date >= ?
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), accountID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}

	return transactions, rows.Err()
}

// SaveFraudRule stores or updates a fraud rule.
func (r *SQLRepository) SaveFraudRule(ctx context.Context, rule *domain.FraudRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	query := `
		INSERT INTO fraud_rules (id, type, enabled, threshold, severity, weight, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			enabled = excluded.enabled,
			threshold = excluded.threshold,
			severity = excluded.severity,
			weight = excluded.weight,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, string(rule.Type), enabled, rule.Threshold,
		string(rule.Severity), rule.Weight, rule.Description, time.Now().UTC(),
	)
	return err
}

// ListFraudRules retrieves every fraud rule.
func (r *SQLRepository) ListFraudRules(ctx context.Context) ([]*domain.FraudRule, error) {
	query := `
		SELECT id, type, enabled, threshold, severity, weight, description
		FROM fraud_rules
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.FraudRule
	for rows.Next() {
		var rule domain.FraudRule
		var enabled int
		var description sql.NullString

		if err := rows.Scan(
			&rule.ID, &rule.Type, &enabled, &rule.Threshold,
			&rule.Severity, &rule.Weight, &description,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rule.Description = description.String
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// SaveCategoryRule stores or updates a categorization rule.
func (r *SQLRepository) SaveCategoryRule(ctx context.Context, rule *domain.CategoryRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	patterns, _ := json.Marshal(rule.Patterns)
	keywords, _ := json.Marshal(rule.Keywords)
	mccs, _ := json.Marshal(rule.MerchantCategories)
	ranges, _ := json.Marshal(rule.AmountRanges)

	query := `
		INSERT INTO category_rules (
			id, category, patterns, keywords, merchant_categories,
			amount_ranges, confidence, priority, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			patterns = excluded.patterns,
			keywords = excluded.keywords,
			merchant_categories = excluded.merchant_categories,
			amount_ranges = excluded.amount_ranges,
			confidence = excluded.confidence,
			priority = excluded.priority,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, string(rule.Category), string(patterns), string(keywords),
		string(mccs), string(ranges), rule.Confidence, rule.Priority, time.Now().UTC(),
	)
	return err
}

// ListCategoryRules retrieves every categorization rule, lowest priority
// value first.
func (r *SQLRepository) ListCategoryRules(ctx context.Context) ([]*domain.CategoryRule, error) {
	query := `
		SELECT id, category, patterns, keywords, merchant_categories, amount_ranges, confidence, priority
		FROM category_rules
		ORDER BY priority ASC, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.CategoryRule
	for rows.Next() {
		var rule domain.CategoryRule
		var patterns, keywords, mccs, ranges sql.NullString

		if err := rows.Scan(
			&rule.ID, &rule.Category, &patterns, &keywords,
			&mccs, &ranges, &rule.Confidence, &rule.Priority,
		); err != nil {
			return nil, err
		}

		unmarshalList(patterns, &rule.Patterns)
		unmarshalList(keywords, &rule.Keywords)
		unmarshalList(mccs, &rule.MerchantCategories)
		if ranges.Valid && ranges.String != "" {
			json.Unmarshal([]byte(ranges.String), &rule.AmountRanges)
		}
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// SaveMerchant stores or updates a merchant record.
func (r *SQLRepository) SaveMerchant(ctx context.Context, merchant *domain.MerchantRecord) error {
	if merchant == nil || merchant.Name == "" {
		return fmt.Errorf("%w: merchant name is required", ErrInvalidInput)
	}

	aliases, _ := json.Marshal(merchant.Aliases)

	query := `
		INSERT INTO merchants (name, aliases, category, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			aliases = excluded.aliases,
			category = excluded.category,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		merchant.Name, string(aliases), string(merchant.Category),
		merchant.Confidence, time.Now().UTC(),
	)
	return err
}

// ListMerchants retrieves every merchant record.
func (r *SQLRepository) ListMerchants(ctx context.Context) ([]*domain.MerchantRecord, error) {
	query := `
		SELECT name, aliases, category, confidence
		FROM merchants
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var merchants []*domain.MerchantRecord
	for rows.Next() {
		var rec domain.MerchantRecord
		var aliases sql.NullString

		if err := rows.Scan(&rec.Name, &aliases, &rec.Category, &rec.Confidence); err != nil {
			return nil, err
		}

		unmarshalList(aliases, &rec.Aliases)
		merchants = append(merchants, &rec)
	}

	return merchants, rows.Err()
}

// SaveAlert stores a new alert.
func (r *SQLRepository) SaveAlert(ctx context.Context, alert *domain.FraudAlert) error {
	if alert == nil || alert.ID == "" {
		return fmt.Errorf("%w: alert id is required", ErrInvalidInput)
	}

	triggers, _ := json.Marshal(alert.Triggers)
	actions, _ := json.Marshal(alert.Actions)

	query := `
		INSERT INTO alerts (
			id, transaction_id, account_id, user_id, type, severity, score,
			description, triggers, created_at, status, resolved_at, resolution, actions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		alert.ID, alert.TransactionID, alert.AccountID, alert.UserID,
		alert.Type, string(alert.Severity), alert.Score,
		alert.Description, string(triggers), alert.CreatedAt,
		alert.Status, nullTime(alert.ResolvedAt), alert.Resolution, string(actions),
	)
	return err
}

// UpdateAlert persists status, resolution and actions for an existing alert.
func (r *SQLRepository) UpdateAlert(ctx context.Context, alert *domain.FraudAlert) error {
	if alert == nil || alert.ID == "" {
		return fmt.Errorf("%w: alert id is required", ErrInvalidInput)
	}

	actions, _ := json.Marshal(alert.Actions)

	query := `
		UPDATE alerts
		SET status = ?, resolved_at = ?, resolution = ?, actions = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query),
		alert.Status, nullTime(alert.ResolvedAt), alert.Resolution, string(actions), alert.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAlertsByAccount retrieves every alert for an account in creation order.
func (r *SQLRepository) ListAlertsByAccount(ctx context.Context, accountID string) ([]*domain.FraudAlert, error) {
	query := `
		SELECT id, transaction_id, account_id, user_id, type, severity, score,
			   description, triggers, created_at, status, resolved_at, resolution, actions
		FROM alerts
		WHERE account_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.FraudAlert
	for rows.Next() {
		var alert domain.FraudAlert
		var userID, description, triggers, resolution, actions sql.NullString
		var resolvedAt sql.NullTime

		if err := rows.Scan(
			&alert.ID, &alert.TransactionID, &alert.AccountID, &userID,
			&alert.Type, &alert.Severity, &alert.Score,
			&description, &triggers, &alert.CreatedAt,
			&alert.Status, &resolvedAt, &resolution, &actions,
		); err != nil {
			return nil, err
		}

		alert.UserID = userID.String
		alert.Description = description.String
		alert.Resolution = resolution.String
		unmarshalList(triggers, &alert.Triggers)
		if actions.Valid && actions.String != "" {
			json.Unmarshal([]byte(actions.String), &alert.Actions)
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			alert.ResolvedAt = &t
		}
		alerts = append(alerts, &alert)
	}

	return alerts, rows.Err()
}

// CountOpenAlertsByUser counts open alerts across all of a user's accounts.
func (r *SQLRepository) CountOpenAlertsByUser(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM alerts
		WHERE user_id = ? AND status = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, r.rebind(query), userID, domain.AlertStatusOpen).Scan(&count)
	return count, err
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

const transactionSelect = `
	SELECT id, account_id, external_id, type, amount, currency,
		   description, reference, category, date, value_date,
		   merchant, location, payment_method, status, is_recurring, fraud_score
	FROM transactions
`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var externalID, reference, category, merchant, location, paymentMethod, status sql.NullString
	var recurring int
	var fraudScore sql.NullInt64

	if err := row.Scan(
		&tx.ID, &tx.AccountID, &externalID, &tx.Type, &tx.Amount, &tx.Currency,
		&tx.Description, &reference, &category, &tx.Date, &tx.ValueDate,
		&merchant, &location, &paymentMethod, &status, &recurring, &fraudScore,
	); err != nil {
		return nil, err
	}

	tx.ExternalID = externalID.String
	tx.Reference = reference.String
	tx.Category = domain.Category(category.String)
	tx.PaymentMethod = paymentMethod.String
	tx.Status = status.String
	tx.IsRecurring = recurring == 1

	if merchant.Valid && merchant.String != "" {
		json.Unmarshal([]byte(merchant.String), &tx.Merchant)
	}
	if location.Valid && location.String != "" {
		json.Unmarshal([]byte(location.String), &tx.Location)
	}
	if fraudScore.Valid {
		score := int(fraudScore.Int64)
		tx.FraudScore = &score
	}

	return &tx, nil
}

func unmarshalList(col sql.NullString, dest *[]string) {
	if col.Valid && col.String != "" {
		json.Unmarshal([]byte(col.String), dest)
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func jsonOrNull(raw []byte, isNil bool) any {
	if isNil {
		return nil
	}
	return string(raw)
}

// isDuplicate reports whether err is a unique-constraint violation from
// either driver.
func isDuplicate(err error) bool {
	if isUniqueViolation(err) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
