package economy

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownCharacter = errors.New("unknown character")
	ErrAlreadyUnlocked  = errors.New("character already unlocked")
	ErrLocked           = errors.New("character is locked")
)

const DefaultCharacter = "default"

// CharacterPrices lists every skin and its unlock price in coins.
var CharacterPrices = map[string]int64{
	DefaultCharacter: 0,
	"warrior":        100,
	"miner":          200,
	"explorer":       300,
	"mage":           500,
	"ninja":          750,
	"knight":         1000,
	"hacker":         1000000,
}

// Characters returns the catalog ordered by price, then name.
func Characters() []string {
	names := make([]string, 0, len(CharacterPrices))
	for name := range CharacterPrices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := CharacterPrices[names[i]], CharacterPrices[names[j]]
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}

// Collection tracks the skins a player owns and the one in use.
type Collection struct {
	Selected string   `json:"selected"`
	Unlocked []string `json:"unlocked"`
}

func NewCollection() Collection {
	return Collection{
		Selected: DefaultCharacter,
		Unlocked: []string{DefaultCharacter},
	}
}

func (c *Collection) IsUnlocked(name string) bool {
	if name == DefaultCharacter {
		return true
	}
	for _, unlocked := range c.Unlocked {
		if unlocked == name {
			return true
		}
	}
	return false
}

// Unlock buys a character with coins from the wallet.
func (c *Collection) Unlock(name string, wallet *Wallet) error {
	price, ok := CharacterPrices[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCharacter, name)
	}
	if c.IsUnlocked(name) {
		return fmt.Errorf("%w: %s", ErrAlreadyUnlocked, name)
	}
	if price > 0 {
		if err := wallet.Spend(price); err != nil {
			return err
		}
	}
	c.Unlocked = append(c.Unlocked, name)
	return nil
}

func (c *Collection) Select(name string) error {
	if _, ok := CharacterPrices[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCharacter, name)
	}
	if !c.IsUnlocked(name) {
		return fmt.Errorf("%w: %s", ErrLocked, name)
	}
	c.Selected = name
	return nil
}
