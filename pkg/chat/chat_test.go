package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	_, err := Sanitize("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	got, err := Sanitize("  hi there ")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)

	long := strings.Repeat("é", MaxInputLength+20)
	got, err = Sanitize(long)
	require.NoError(t, err)
	assert.Equal(t, MaxInputLength, len([]rune(got)))
}

func TestHistory_capacity(t *testing.T) {
	h := NewHistory(3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		h.Add(NewMessage(KindPlayer, ChannelWorld, "steve", string(rune('a'+i)), now))
	}
	assert.Equal(t, 3, h.Len())

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Text)
	assert.Equal(t, "e", recent[2].Text)

	assert.Len(t, h.Recent(2), 2)
	assert.Equal(t, "e", h.Recent(1)[0].Text)
}

func TestHistory_Visible(t *testing.T) {
	h := NewHistory(50)
	base := time.Unix(1000, 0)
	h.Add(NewMessage(KindPlayer, ChannelWorld, "old", "stale", base))
	for i := 0; i < DisplayCount+2; i++ {
		h.Add(System(KindSystem, "notice", base.Add(5*time.Second)))
	}

	visible := h.Visible(base.Add(12 * time.Second))
	assert.Len(t, visible, DisplayCount)

	assert.Empty(t, h.Visible(base.Add(time.Minute)))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{in: "hello", want: Command{}},
		{in: "/msg alex hi there", want: Command{Name: CommandMsg, Target: "alex", Arg: "hi there"}},
		{in: "/w alex yo", want: Command{Name: CommandMsg, Target: "alex", Arg: "yo"}},
		{in: "/msg alex", wantErr: true},
		{in: "/g everyone listen", want: Command{Name: CommandGlobal, Arg: "everyone listen"}},
		{in: "/time night", want: Command{Name: CommandTime, Arg: "night"}},
		{in: "/time noon", wantErr: true},
		{in: "/weather rain", want: Command{Name: CommandWeather, Arg: "rain"}},
		{in: "/coins", want: Command{Name: CommandCoins}},
		{in: "/HELP", want: Command{Name: CommandHelp}},
		{in: "/dance", wantErr: true},
		{in: "/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveChannel(t *testing.T) {
	assert.Equal(t, ChannelWorld, ResolveChannel(ChannelGlobal, permissions.Player))
	assert.Equal(t, ChannelGlobal, ResolveChannel(ChannelGlobal, permissions.Moderator))
	assert.Equal(t, ChannelWorld, ResolveChannel("", permissions.Owner))
	assert.Equal(t, ChannelPrivate, ResolveChannel(ChannelPrivate, permissions.Guest))
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(0, 2)
	assert.True(t, l.Allow("steve"))
	assert.True(t, l.Allow("steve"))
	assert.False(t, l.Allow("steve"))
	assert.True(t, l.Allow("alex"))

	l.Forget("steve")
	assert.True(t, l.Allow("steve"))
}
