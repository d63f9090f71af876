package domain

import "time"

// FraudRuleType selects which detector evaluates a rule.
type FraudRuleType string

const (
	RuleTypeAmount   FraudRuleType = "amount"
	RuleTypeVelocity FraudRuleType = "velocity"
	RuleTypeTime     FraudRuleType = "time"
	RuleTypeLocation FraudRuleType = "location"
	RuleTypeMerchant FraudRuleType = "merchant"
	RuleTypePattern  FraudRuleType = "pattern"
)

// Severity classifies how serious an alert or rule is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FraudRule is a data-driven fraud detection rule. Threshold semantics
// depend on Type; Weight is the rule's contribution to the composite score.
// Threshold and Weight are hot-updatable without restart.
type FraudRule struct {
	ID          string        `json:"id"`
	Type        FraudRuleType `json:"type"`
	Enabled     bool          `json:"enabled"`
	Threshold   float64       `json:"threshold"`
	Severity    Severity      `json:"severity"`
	Weight      float64       `json:"weight"`
	Description string        `json:"description,omitempty"`
}

// FraudRuleUpdate is a partial update to a fraud rule. Nil fields are left
// unchanged.
type FraudRuleUpdate struct {
	Enabled   *bool    `json:"enabled,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	Severity  *Severity `json:"severity,omitempty"`
}

// RuleScore is the outcome of one detector for one rule.
type RuleScore struct {
	RuleID   string  `json:"ruleId"`
	SubScore float64 `json:"subScore"` // 0-100, 0 means no signal
	Weight   float64 `json:"weight"`
	Reason   string  `json:"reason,omitempty"`
}

// RiskResult is the full output of scoring one transaction.
type RiskResult struct {
	TransactionID string      `json:"transactionId"`
	AccountID     string      `json:"accountId"`
	Score         int         `json:"score"` // composite 0-100
	Triggers      []string    `json:"triggers,omitempty"`
	RuleScores    []RuleScore `json:"ruleScores,omitempty"`
}

// Alert status values.
const (
	AlertStatusOpen     = "open"
	AlertStatusResolved = "resolved"
)

// AlertActions carries advisory flags; nothing here is effected by the
// engine itself.
type AlertActions struct {
	AccountBlocked       bool `json:"accountBlocked"`
	CardBlocked          bool `json:"cardBlocked"`
	NotificationSent     bool `json:"notificationSent"`
	ManualReviewRequired bool `json:"manualReviewRequired"`
}

// FraudAlert is created once when a composite score crosses the alert
// threshold. Lifecycle: open -> resolved (terminal); never deleted, never
// re-opened.
type FraudAlert struct {
	ID            string   `json:"id"`
	TransactionID string   `json:"transactionId"`
	AccountID     string   `json:"accountId"`
	UserID        string   `json:"userId,omitempty"`
	Type          string   `json:"type"`
	Severity      Severity `json:"severity"`
	Score         int      `json:"score"`
	Description   string   `json:"description"`
	Triggers      []string `json:"triggers,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	Resolution string     `json:"resolution,omitempty"`

	Actions AlertActions `json:"actions"`
}
