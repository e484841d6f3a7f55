package fuel

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCredits is matched by *InsufficientCreditsError via errors.Is
	ErrInsufficientCredits = errors.New("insufficient credits")

	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidAmount   = errors.New("invalid amount: must be greater than 0")
	ErrCreditsNotFound = errors.New("credits not found")

	// ErrLedgerBusy is returned when the per-user lock could not be taken
	ErrLedgerBusy = errors.New("ledger busy")

	ErrInternal = errors.New("internal error")
)

// InsufficientCreditsError carries the shortfall so clients can render it.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}
