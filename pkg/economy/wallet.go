package economy

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Wallet holds a player's coin balance.
type Wallet struct {
	Coins int64 `json:"coins"`
}

func (w *Wallet) Add(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.Coins += amount
	return nil
}

func (w *Wallet) Spend(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !w.CanAfford(amount) {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, w.Coins, amount)
	}
	w.Coins -= amount
	return nil
}

func (w *Wallet) CanAfford(amount int64) bool {
	return w.Coins >= amount
}

// Format renders the balance with K and M suffixes (1500 -> "1.5K").
func (w *Wallet) Format() string {
	return FormatCoins(w.Coins)
}

func FormatCoins(coins int64) string {
	switch {
	case coins >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(coins)/1_000_000)
	case coins >= 1_000:
		return fmt.Sprintf("%.1fK", float64(coins)/1_000)
	default:
		return fmt.Sprintf("%d", coins)
	}
}
