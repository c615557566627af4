package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	p, err := ParseKey("-12,40")
	require.NoError(t, err)
	assert.Equal(t, Pos{X: -12, Y: 40}, p)
	assert.Equal(t, "-12,40", p.Key())

	for _, bad := range []string{"", "12", "a,1", "1,b"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestChunkOf(t *testing.T) {
	tests := map[int]int{0: 0, 15: 0, 16: 1, -1: -1, -16: -1, -17: -2, 127: 7, -128: -8}
	for x, want := range tests {
		assert.Equal(t, want, ChunkOf(x), "x=%d", x)
	}
}

func TestWorld_BreakAndPlace(t *testing.T) {
	w := New(NewWorldOptions{})
	p := Pos{X: 3, Y: 10}

	_, err := w.Break(p)
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, w.Place(p, "stone"))
	assert.Equal(t, "stone", w.Get(p))
	assert.ErrorIs(t, w.Place(p, "dirt"), ErrOccupied)

	old, err := w.Break(p)
	require.NoError(t, err)
	assert.Equal(t, "stone", old)
	assert.True(t, w.IsAir(p))
	assert.Equal(t, Air, w.Get(p))

	assert.Error(t, w.Place(p, Air))
	assert.ErrorIs(t, w.Place(Pos{X: MaxX, Y: 0}, "stone"), ErrOutOfBounds)
}

func TestWorld_SetAirDeletes(t *testing.T) {
	w := New(NewWorldOptions{})
	p := Pos{X: 1, Y: 1}
	require.NoError(t, w.Set(p, "dirt"))
	assert.Equal(t, 1, w.Len())
	require.NoError(t, w.Set(p, Air))
	assert.Equal(t, 0, w.Len())
	assert.NotContains(t, w.Blocks(), "1,1")
}

func TestWorld_BedrockIsUnbreakable(t *testing.T) {
	w := New(NewWorldOptions{})
	p := Pos{X: 0, Y: MaxY - 1}
	require.NoError(t, w.Set(p, Bedrock))
	_, err := w.Break(p)
	assert.ErrorIs(t, err, ErrUnbreakable)
}

func TestWorld_EnsureChunkOnce(t *testing.T) {
	var calls []int
	w := New(NewWorldOptions{
		Generator: FlatGenerator{Seed: 42},
		OnChunkGenerated: func(chunk int, blocks map[Pos]string) {
			calls = append(calls, chunk)
			assert.NotEmpty(t, blocks)
		},
	})

	assert.True(t, w.EnsureChunk(0))
	assert.False(t, w.EnsureChunk(0))
	assert.Equal(t, []int{0}, calls)

	spawn := FlatGenerator{Seed: 42}.SpawnPoint(0)
	assert.True(t, w.IsAir(spawn))
	assert.Equal(t, "grass", w.Get(Pos{X: 0, Y: spawn.Y + 1}))
	assert.Equal(t, Bedrock, w.Get(Pos{X: 5, Y: MaxY - 1}))

	generated := w.EnsureAround(0, 1)
	assert.Equal(t, []int{-1, 1}, generated)
	assert.Equal(t, []int{-1, 0, 1}, w.Chunks())

	assert.False(t, w.EnsureChunk(ChunkOf(MaxX)+1))
}

func TestWorld_GeneratorKeepsEdits(t *testing.T) {
	w := New(NewWorldOptions{Generator: FlatGenerator{Seed: 1}})
	p := Pos{X: 2, Y: 5}
	require.NoError(t, w.Set(p, "glass"))
	w.EnsureChunk(0)
	assert.Equal(t, "glass", w.Get(p))
}

func TestFlatGenerator_deterministic(t *testing.T) {
	a := New(NewWorldOptions{Generator: FlatGenerator{Seed: 7}})
	b := New(NewWorldOptions{Generator: FlatGenerator{Seed: 7}})
	a.EnsureChunk(-2)
	b.EnsureChunk(-2)
	assert.Equal(t, a.Blocks(), b.Blocks())
}

func TestWorld_Load(t *testing.T) {
	w := New(NewWorldOptions{Generator: FlatGenerator{Seed: 1}})
	err := w.Load(map[string]string{"1,2": "stone", "3,4": "air", "900,1": "dirt"}, []int{0})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1,2": "stone"}, w.Blocks())
	assert.False(t, w.EnsureChunk(0))

	assert.Error(t, w.Load(map[string]string{"nope": "stone"}, nil))
}
