package core

import (
	"fmt"
	"time"
)

// AlertType classifies what a watch condition looks at.
type AlertType string

const (
	AlertTypePrice      AlertType = "price"
	AlertTypePercentage AlertType = "percentage"
	AlertTypeBond       AlertType = "bond"
)

// AlertCondition is the stored comparison keyword. Legal pairings with
// AlertType are enforced through ParseCondition.
type AlertCondition string

const (
	ConditionAbove     AlertCondition = "above"
	ConditionBelow     AlertCondition = "below"
	ConditionIncreases AlertCondition = "increases"
	ConditionDecreases AlertCondition = "decreases"
	ConditionReaches   AlertCondition = "reaches"
)

// Alert is one user's watch condition on one token. Trigger fields are
// one-way: once IsTriggered flips true the sweep never touches the row again.
type Alert struct {
	ID          int64
	UserID      string
	TokenID     string
	TokenName   string
	TokenSymbol string
	Type        AlertType
	Condition   AlertCondition
	Threshold   float64
	Timeframe   Timeframe // required for percentage alerts, empty otherwise

	IsActive    bool
	IsTriggered bool

	TriggeredAt         *time.Time
	TriggeredPrice      *float64
	TriggeredPercentage *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks a new alert definition the way the dashboard validated
// creation requests: required fields, non-negative threshold, legal
// type/condition pairing, timeframe present iff the type needs one.
func (a *Alert) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if a.TokenID == "" {
		return fmt.Errorf("token id is required")
	}
	if a.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative")
	}
	if a.Type == AlertTypePercentage {
		if a.Timeframe == "" {
			return fmt.Errorf("timeframe is required for percentage alerts")
		}
		if !ValidTimeframe(a.Timeframe) {
			return fmt.Errorf("invalid timeframe '%s', must be one of: 5m, 1h, 6h, 24h, 7d", a.Timeframe)
		}
	}
	if _, ok := ParseCondition(a.Type, a.Condition, a.Timeframe); !ok {
		return fmt.Errorf("invalid pairing of type '%s' and condition '%s'", a.Type, a.Condition)
	}
	return nil
}
