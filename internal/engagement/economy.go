package engagement

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInsufficientFunds = errors.New("insufficient engagement points")
	ErrNegativeAmount    = errors.New("amount must be a non-negative number")
)

// CanAfford reports whether the balance covers cost.
func (s *State) CanAfford(cost float64) bool {
	return s.Currency >= cost
}

// Spend deducts cost and returns the new balance. The balance is untouched on
// error, so it never goes negative.
func (s *State) Spend(cost float64) (float64, error) {
	if err := checkAmount(cost); err != nil {
		return s.Currency, err
	}
	if !s.CanAfford(cost) {
		return s.Currency, fmt.Errorf("%w: have %g, need %g", ErrInsufficientFunds, s.Currency, cost)
	}
	s.Currency -= cost
	return s.Currency, nil
}

// Credit adds amount and returns the new balance.
func (s *State) Credit(amount float64) (float64, error) {
	if err := checkAmount(amount); err != nil {
		return s.Currency, err
	}
	s.Currency += amount
	return s.Currency, nil
}

func checkAmount(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %g", ErrNegativeAmount, v)
	}
	return nil
}

// Display floors an EP amount for presentation. State keeps the fraction.
func Display(v float64) int64 {
	return int64(math.Floor(v))
}
