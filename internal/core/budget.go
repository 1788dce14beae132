package core

const (
	BucketOK      BudgetBucket = "ok"
	BucketWarning BudgetBucket = "warning"
	BucketOver    BudgetBucket = "over"
)

// BudgetBucket is the severity classification of a budget-consumption
// percentage.
type BudgetBucket string

// BudgetPercent returns spent/budget*100. The second return is false when no
// budget is defined (zero cents), in which case the percentage is undefined.
func BudgetPercent(spent, budget Money) (float64, bool) {
	if budget.Cents <= 0 {
		return 0, false
	}
	return float64(spent.Cents) / float64(budget.Cents) * 100, true
}

// Bucket classifies a budget-consumption percentage. Boundaries are
// inclusive: exactly 80% is still ok, exactly 100% is still warning.
func Bucket(percent float64) BudgetBucket {
	switch {
	case percent <= 80:
		return BucketOK
	case percent <= 100:
		return BucketWarning
	default:
		return BucketOver
	}
}
