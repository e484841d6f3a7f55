package fuel

import "fmt"

// Split is how a paid amount is drawn from the two pools.
type Split struct {
	Daily     int
	Permanent int
}

// SplitDeduction draws from daily fuel first and takes the remainder from permanent
// fuel. Fails without touching anything when the combined balance is short.
func SplitDeduction(daily, permanent, amount int) (Split, error) {
	if amount <= 0 {
		return Split{}, ErrInvalidAmount
	}
	if available := daily + permanent; available < amount {
		return Split{}, &InsufficientCreditsError{Required: amount, Available: available}
	}

	dailyDeduct := min(daily, amount)
	return Split{Daily: dailyDeduct, Permanent: amount - dailyDeduct}, nil
}

// Apply subtracts the split from c.
func (s Split) Apply(c *UserCredits) {
	c.DailyFuel -= s.Daily
	c.PermanentFuel -= s.Permanent
}

// Entries returns one negative audit row per non-zero component.
func (s Split) Entries(action string) []TransactionEntry {
	entries := make([]TransactionEntry, 0, 2)
	if s.Daily > 0 {
		entries = append(entries, TransactionEntry{
			Amount:      -s.Daily,
			CreditType:  CreditTypeDaily,
			ActionType:  action,
			Description: fmt.Sprintf("%s (daily fuel)", action),
		})
	}
	if s.Permanent > 0 {
		entries = append(entries, TransactionEntry{
			Amount:      -s.Permanent,
			CreditType:  CreditTypePermanent,
			ActionType:  action,
			Description: fmt.Sprintf("%s (permanent fuel)", action),
		})
	}
	return entries
}
