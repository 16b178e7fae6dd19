package core

// WatchCondition is a closed set of evaluable alert conditions. Stored alerts
// carry loose (type, condition) strings; ParseCondition maps them into a
// variant so that illegal pairings cannot reach the evaluator.
type WatchCondition interface {
	watchCondition()
}

// PriceAbove triggers when the snapshot price is strictly above the threshold.
type PriceAbove struct{}

// PriceBelow triggers when the snapshot price is strictly below the threshold.
type PriceBelow struct{}

// PercentageIncreases triggers when the change over Timeframe exceeds the
// threshold.
type PercentageIncreases struct {
	Timeframe Timeframe
}

// PercentageDecreases triggers when the change over Timeframe falls below the
// negated threshold.
type PercentageDecreases struct {
	Timeframe Timeframe
}

// BondReaches triggers when the bonding percentage meets or exceeds the
// threshold.
type BondReaches struct{}

func (PriceAbove) watchCondition()          {}
func (PriceBelow) watchCondition()          {}
func (PercentageIncreases) watchCondition() {}
func (PercentageDecreases) watchCondition() {}
func (BondReaches) watchCondition()         {}

// ParseCondition maps a stored (type, condition, timeframe) triple onto a
// WatchCondition. ok is false for unknown or illegal pairings and for
// percentage alerts without a usable timeframe; callers skip such alerts
// instead of failing the sweep, which tolerates legacy rows.
func ParseCondition(t AlertType, c AlertCondition, tf Timeframe) (WatchCondition, bool) {
	switch t {
	case AlertTypePrice:
		switch c {
		case ConditionAbove:
			return PriceAbove{}, true
		case ConditionBelow:
			return PriceBelow{}, true
		}
	case AlertTypePercentage:
		if !ValidTimeframe(tf) {
			return nil, false
		}
		switch c {
		case ConditionIncreases:
			return PercentageIncreases{Timeframe: tf}, true
		case ConditionDecreases:
			return PercentageDecreases{Timeframe: tf}, true
		}
	case AlertTypeBond:
		if c == ConditionReaches {
			return BondReaches{}, true
		}
	}
	return nil, false
}
