package fuel

const (
	ActionCVBuilder     = "cv_builder"
	ActionInterviewPrep = "interview_prep"
	ActionResumeMatch   = "resume_match"
	ActionPing          = "ping"

	// FreePingsPerDay pings per UTC day cost nothing.
	FreePingsPerDay = 4
)

// DefaultCosts is the static per-action price list.
var DefaultCosts = map[string]int{
	ActionCVBuilder:     10,
	ActionInterviewPrep: 5,
	ActionResumeMatch:   3,
	ActionPing:          15,
}

// Quote is what an action will cost the caller right now.
type Quote struct {
	Amount   int
	FreePing bool
}

// PricingPolicy maps an action and today's usage to a charge.
type PricingPolicy struct {
	Costs           map[string]int
	FreePingsPerDay int
}

func DefaultPricing() PricingPolicy {
	return PricingPolicy{Costs: DefaultCosts, FreePingsPerDay: FreePingsPerDay}
}

// Known reports whether action has a list price.
func (p PricingPolicy) Known(action string) bool {
	_, ok := p.Costs[action]
	return ok
}

// Quote resolves the charge. customAmount overrides the list price.
func (p PricingPolicy) Quote(action string, customAmount *int, pingsToday int) (Quote, error) {
	if action == ActionPing && pingsToday < p.FreePingsPerDay {
		return Quote{FreePing: true}, nil
	}

	if customAmount != nil {
		if *customAmount <= 0 {
			return Quote{}, ErrInvalidAmount
		}
		return Quote{Amount: *customAmount}, nil
	}

	cost, ok := p.Costs[action]
	if !ok {
		return Quote{}, ErrUnknownAction
	}
	return Quote{Amount: cost}, nil
}
