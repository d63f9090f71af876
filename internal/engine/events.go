package engine

import "github.com/opensource-finance/harrier/internal/domain"

// RiskScoredEvent is published on every analysis.
type RiskScoredEvent struct {
	TransactionID string            `json:"transactionId"`
	AccountID     string            `json:"accountId"`
	Score         int               `json:"score"`
	Category      domain.Category   `json:"category"`
	Triggers      []string          `json:"triggers,omitempty"`
	RuleScores    []domain.RuleScore `json:"ruleScores,omitempty"`
}

// RiskElevatedEvent is published when a score clears the elevated threshold
// without reaching the alert threshold.
type RiskElevatedEvent struct {
	TransactionID string   `json:"transactionId"`
	AccountID     string   `json:"accountId"`
	Score         int      `json:"score"`
	Triggers      []string `json:"triggers,omitempty"`
}

// AlertCreatedEvent is published when the alert manager creates an alert.
type AlertCreatedEvent struct {
	AlertID       string          `json:"alertId"`
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	UserID        string          `json:"userId,omitempty"`
	Score         int             `json:"score"`
	Severity      domain.Severity `json:"severity"`
	Triggers      []string        `json:"triggers,omitempty"`
}

// TransactionCategorizedEvent is published after the categorization step of
// an analysis.
type TransactionCategorizedEvent struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	Category      domain.Category `json:"category"`
}
