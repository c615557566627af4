package world

import "math/rand"

const (
	SurfaceY   = 48
	dirtDepth  = 3
	chestEvery = 40
)

// FlatGenerator builds gently rolling terrain from a seed. The same seed
// always produces the same chunk.
type FlatGenerator struct {
	Seed int64
}

func (g FlatGenerator) surface(x int) int {
	r := rand.New(rand.NewSource(g.Seed ^ int64(x/8)*7919))
	return SurfaceY + r.Intn(5) - 2
}

func (g FlatGenerator) GenerateChunk(chunk int, set func(Pos, string)) {
	start := chunk * ChunkWidth
	for x := start; x < start+ChunkWidth; x++ {
		top := g.surface(x)
		set(Pos{X: x, Y: top}, "grass")
		for y := top + 1; y <= top+dirtDepth; y++ {
			set(Pos{X: x, Y: y}, "dirt")
		}
		for y := top + dirtDepth + 1; y < MaxY-1; y++ {
			set(Pos{X: x, Y: y}, "stone")
		}
		set(Pos{X: x, Y: MaxY - 1}, Bedrock)

		if x != 0 && mod(x+int(g.Seed%chestEvery), chestEvery) == 0 {
			set(Pos{X: x, Y: top - 1}, Chest)
		}
	}
}

// SpawnPoint returns the air block just above the surface at column x.
func (g FlatGenerator) SpawnPoint(x int) Pos {
	return Pos{X: x, Y: g.surface(x) - 1}
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
