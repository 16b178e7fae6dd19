package core

// Evaluate decides whether a watch condition is satisfied by a snapshot.
// Pure function: the caller performs the trigger state transition.
//
// Price comparisons are strict (exact equality never triggers); bond
// comparisons are inclusive so a threshold of 100 fires only at exactly 100.
// Percentage conditions whose timeframe has no data yet are not evaluable and
// return false.
func Evaluate(cond WatchCondition, threshold float64, snap *TokenSnapshot) bool {
	if snap == nil {
		return false
	}
	switch c := cond.(type) {
	case PriceAbove:
		return snap.PriceUsd > threshold
	case PriceBelow:
		return snap.PriceUsd < threshold
	case PercentageIncreases:
		change, ok := snap.Change(c.Timeframe)
		return ok && change > threshold
	case PercentageDecreases:
		change, ok := snap.Change(c.Timeframe)
		return ok && change < -threshold
	case BondReaches:
		return float64(snap.BondingPercentage) >= threshold
	}
	return false
}

// EvaluateAlert parses the alert's stored condition and evaluates it against
// the snapshot. evaluable is false when the alert cannot be judged this tick:
// unknown pairing, missing timeframe data, or no snapshot.
func EvaluateAlert(a *Alert, snap *TokenSnapshot) (triggered, evaluable bool) {
	cond, ok := ParseCondition(a.Type, a.Condition, a.Timeframe)
	if !ok {
		return false, false
	}
	if snap == nil {
		return false, false
	}
	// Percentage conditions also need data for their window to be judged.
	switch c := cond.(type) {
	case PercentageIncreases:
		if _, ok := snap.Change(c.Timeframe); !ok {
			return false, false
		}
	case PercentageDecreases:
		if _, ok := snap.Change(c.Timeframe); !ok {
			return false, false
		}
	}
	return Evaluate(cond, a.Threshold, snap), true
}
