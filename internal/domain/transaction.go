// Package domain defines the core interfaces and types for Harrier.
package domain

import (
	"time"
)

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// Transaction represents a single observed movement of money.
// Amount is a non-negative magnitude; the sign derives from Type.
// Category and FraudScore are the only fields the engine mutates: each is
// assigned once per sync pass, and re-running against the same catalogs
// converges to the same values.
type Transaction struct {
	ID         string `json:"id"`
	AccountID  string `json:"accountId"`
	ExternalID string `json:"externalId"` // provider-assigned, used for de-duplication

	Type     TransactionType `json:"type"`
	Amount   float64         `json:"amount"`
	Currency string          `json:"currency"`

	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`

	Category Category `json:"category,omitempty"`

	Date      time.Time `json:"date"`
	ValueDate time.Time `json:"valueDate"`

	Merchant *Merchant `json:"merchant,omitempty"`
	Location *Location `json:"location,omitempty"`

	PaymentMethod string `json:"paymentMethod,omitempty"`
	Status        string `json:"status,omitempty"`
	IsRecurring   bool   `json:"isRecurring"`

	FraudScore *int `json:"fraudScore,omitempty"`
}

// Merchant holds the merchant details attached to a transaction.
type Merchant struct {
	Name         string `json:"name"`
	CategoryCode string `json:"categoryCode,omitempty"`
	MCC          string `json:"mcc,omitempty"`
}

// Location holds the geographic details attached to a transaction.
type Location struct {
	City      string  `json:"city,omitempty"`
	Province  string  `json:"province,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Key returns the "city, province" form used in behavioral profiles.
func (l *Location) Key() string {
	if l == nil {
		return ""
	}
	if l.Province == "" {
		return l.City
	}
	return l.City + ", " + l.Province
}

// SignedAmount returns the amount with its direction applied.
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TypeDebit {
		return -t.Amount
	}
	return t.Amount
}

// Account owns zero or more transactions. Read-only from the engine's
// perspective; the sync collaborators maintain it.
type Account struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	AccountType string  `json:"accountType"`
	Balance     float64 `json:"balance"`
	Fees        float64 `json:"fees"`

	// HomeCountry is the country the account is domiciled in, used as the
	// baseline for location anomaly checks.
	HomeCountry string `json:"homeCountry,omitempty"`
}
