package repository

// Schema definitions for the Harrier database.
// Compatible with both SQLite and PostgreSQL.

const schemaAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    account_type TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0,
    fees REAL NOT NULL DEFAULT 0,
    home_country TEXT
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    external_id TEXT,
    type TEXT NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL,
    description TEXT NOT NULL,
    reference TEXT,
    category TEXT,
    date TIMESTAMP NOT NULL,
    value_date TIMESTAMP NOT NULL,
    merchant TEXT,
    location TEXT,
    payment_method TEXT,
    status TEXT,
    is_recurring INTEGER NOT NULL DEFAULT 0,
    fraud_score INTEGER
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date);
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_external ON transactions(account_id, external_id);
`

const schemaFraudRules = `
CREATE TABLE IF NOT EXISTS fraud_rules (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    threshold REAL NOT NULL DEFAULT 0,
    severity TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 0,
    description TEXT,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaCategoryRules = `
CREATE TABLE IF NOT EXISTS category_rules (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    patterns TEXT,
    keywords TEXT,
    merchant_categories TEXT,
    amount_ranges TEXT,
    confidence REAL NOT NULL DEFAULT 0,
    priority INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_category_rules_priority ON category_rules(priority);
`

const schemaMerchants = `
CREATE TABLE IF NOT EXISTS merchants (
    name TEXT PRIMARY KEY,
    aliases TEXT,
    category TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    transaction_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    user_id TEXT,
    type TEXT NOT NULL,
    severity TEXT NOT NULL,
    score INTEGER NOT NULL,
    description TEXT,
    triggers TEXT,
    created_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL,
    resolved_at TIMESTAMP,
    resolution TEXT,
    actions TEXT
);

CREATE INDEX IF NOT EXISTS idx_alerts_account ON alerts(account_id);
CREATE INDEX IF NOT EXISTS idx_alerts_user_status ON alerts(user_id, status);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAccounts,
		schemaTransactions,
		schemaFraudRules,
		schemaCategoryRules,
		schemaMerchants,
		schemaAlerts,
	}
}
