package permissions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_Has(t *testing.T) {
	assert.True(t, Owner.Has(Admin))
	assert.True(t, Moderator.Has(Moderator))
	assert.False(t, Player.Has(Moderator))
	assert.False(t, Guest.CanModifyWorld())
	assert.True(t, Player.CanModifyWorld())
}

func TestLevel_CanGrant(t *testing.T) {
	tests := []struct {
		name    string
		granter Level
		target  Level
		want    bool
	}{
		{name: "moderator cannot grant", granter: Moderator, target: Player, want: false},
		{name: "admin grants moderator", granter: Admin, target: Moderator, want: true},
		{name: "admin grants admin", granter: Admin, target: Admin, want: true},
		{name: "admin cannot grant owner", granter: Admin, target: Owner, want: false},
		{name: "owner grants owner", granter: Owner, target: Owner, want: true},
		{name: "invalid target", granter: Owner, target: Level(9), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.granter.CanGrant(tt.target))
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("Moderator")
	require.NoError(t, err)
	assert.Equal(t, Moderator, level)

	level, err = ParseLevel("3")
	require.NoError(t, err)
	assert.Equal(t, Admin, level)

	_, err = ParseLevel("7")
	assert.Error(t, err)

	_, err = ParseLevel("king")
	assert.Error(t, err)
}

func TestLevel_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Level{"level": Admin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"admin"}`, string(b))

	var decoded map[string]Level
	require.NoError(t, json.Unmarshal([]byte(`{"level":"owner"}`), &decoded))
	assert.Equal(t, Owner, decoded["level"])
}
