package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet(t *testing.T) {
	w := &Wallet{}
	assert.ErrorIs(t, w.Add(0), ErrInvalidAmount)
	assert.ErrorIs(t, w.Add(-5), ErrInvalidAmount)
	require.NoError(t, w.Add(150))
	assert.True(t, w.CanAfford(150))
	assert.False(t, w.CanAfford(151))

	err := w.Spend(200)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(150), w.Coins)

	require.NoError(t, w.Spend(50))
	assert.Equal(t, int64(100), w.Coins)
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "999", FormatCoins(999))
	assert.Equal(t, "1.5K", FormatCoins(1500))
	assert.Equal(t, "2.3M", FormatCoins(2_300_000))
}

func TestCollection(t *testing.T) {
	c := NewCollection()
	wallet := &Wallet{Coins: 250}

	assert.ErrorIs(t, c.Select("miner"), ErrLocked)
	assert.ErrorIs(t, c.Unlock("pirate", wallet), ErrUnknownCharacter)
	assert.ErrorIs(t, c.Unlock(DefaultCharacter, wallet), ErrAlreadyUnlocked)

	require.NoError(t, c.Unlock("miner", wallet))
	assert.Equal(t, int64(50), wallet.Coins)
	assert.ErrorIs(t, c.Unlock("miner", wallet), ErrAlreadyUnlocked)
	assert.ErrorIs(t, c.Unlock("warrior", wallet), ErrInsufficientFunds)

	require.NoError(t, c.Select("miner"))
	assert.Equal(t, "miner", c.Selected)
}

func TestCharacters_sortedByPrice(t *testing.T) {
	names := Characters()
	require.Len(t, names, len(CharacterPrices))
	assert.Equal(t, DefaultCharacter, names[0])
	assert.Equal(t, "hacker", names[len(names)-1])
	assert.Equal(t, []string{"knight"}, names[6:7])
}
