package world

import (
	"errors"
	"fmt"
	"sort"
)

const (
	Air     = "air"
	Chest   = "chest"
	Bedrock = "bedrock"

	MinX = -128
	MaxX = 128
	MinY = 0
	MaxY = 128

	// ChunkWidth is the number of block columns in a chunk.
	ChunkWidth = 16
)

var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrOccupied    = errors.New("position is not air")
	ErrEmpty       = errors.New("no block at position")
	ErrUnbreakable = errors.New("block cannot be broken")
)

// InBounds reports whether p lies inside the world.
func InBounds(p Pos) bool {
	return p.X >= MinX && p.X < MaxX && p.Y >= MinY && p.Y < MaxY
}

// ChunkOf returns the chunk index holding column x.
func ChunkOf(x int) int {
	if x >= 0 {
		return x / ChunkWidth
	}
	return -((-x + ChunkWidth - 1) / ChunkWidth)
}

// Generator fills one chunk of a fresh world.
type Generator interface {
	GenerateChunk(chunk int, set func(Pos, string))
}

// GeneratedFunc is notified after a chunk has been generated for the first time.
type GeneratedFunc func(chunk int, blocks map[Pos]string)

// World is the block map of one game world. It is owned by the game loop
// and is not safe for concurrent use.
type World struct {
	blocks    map[Pos]string
	chunks    map[int]struct{}
	generator Generator
	onChunk   GeneratedFunc
}

type NewWorldOptions struct {
	Generator Generator
	// OnChunkGenerated runs once per newly generated chunk.
	OnChunkGenerated GeneratedFunc
}

func New(opts NewWorldOptions) *World {
	return &World{
		blocks:    make(map[Pos]string),
		chunks:    make(map[int]struct{}),
		generator: opts.Generator,
		onChunk:   opts.OnChunkGenerated,
	}
}

// SetOnChunkGenerated replaces the chunk generation callback.
func (w *World) SetOnChunkGenerated(fn GeneratedFunc) {
	w.onChunk = fn
}

// Get returns the block at p, or Air.
func (w *World) Get(p Pos) string {
	if block, ok := w.blocks[p]; ok {
		return block
	}
	return Air
}

// IsAir reports whether there is no block at p.
func (w *World) IsAir(p Pos) bool {
	_, ok := w.blocks[p]
	return !ok
}

// Set writes a block. Setting Air or "" removes the block.
func (w *World) Set(p Pos, block string) error {
	if !InBounds(p) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	if block == "" || block == Air {
		delete(w.blocks, p)
		return nil
	}
	w.blocks[p] = block
	return nil
}

// Break removes the block at p and returns what was there.
func (w *World) Break(p Pos) (string, error) {
	if !InBounds(p) {
		return "", fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	block, ok := w.blocks[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrEmpty, p)
	}
	if block == Bedrock {
		return "", fmt.Errorf("%w: %s", ErrUnbreakable, block)
	}
	delete(w.blocks, p)
	return block, nil
}

// Place puts a block on an air position.
func (w *World) Place(p Pos, block string) error {
	if block == "" || block == Air {
		return fmt.Errorf("cannot place %q", block)
	}
	if !InBounds(p) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	if !w.IsAir(p) {
		return fmt.Errorf("%w: %s", ErrOccupied, p)
	}
	w.blocks[p] = block
	return nil
}

func (w *World) Len() int {
	return len(w.blocks)
}

// Blocks returns a copy of the block map keyed by "x,y".
func (w *World) Blocks() map[string]string {
	out := make(map[string]string, len(w.blocks))
	for p, block := range w.blocks {
		out[p.Key()] = block
	}
	return out
}

// Positions returns all positions holding the given block type, sorted.
func (w *World) Positions(block string) []Pos {
	var out []Pos
	for p, b := range w.blocks {
		if b == block {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Load replaces the world with saved blocks. Loaded columns count as
// generated so that the generator never overwrites player edits.
func (w *World) Load(blocks map[string]string, chunks []int) error {
	loaded := make(map[Pos]string, len(blocks))
	for key, block := range blocks {
		p, err := ParseKey(key)
		if err != nil {
			return err
		}
		if block == "" || block == Air || !InBounds(p) {
			continue
		}
		loaded[p] = block
	}
	w.blocks = loaded
	w.chunks = make(map[int]struct{}, len(chunks))
	for _, c := range chunks {
		w.chunks[c] = struct{}{}
	}
	return nil
}

// Chunks returns the generated chunk indices in order.
func (w *World) Chunks() []int {
	out := make([]int, 0, len(w.chunks))
	for c := range w.chunks {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// EnsureChunk generates chunk c if it has not been generated yet.
// It returns true when the chunk was generated by this call.
func (w *World) EnsureChunk(c int) bool {
	if _, ok := w.chunks[c]; ok {
		return false
	}
	if c < ChunkOf(MinX) || c > ChunkOf(MaxX-1) {
		return false
	}
	w.chunks[c] = struct{}{}
	if w.generator == nil {
		return true
	}

	generated := make(map[Pos]string)
	w.generator.GenerateChunk(c, func(p Pos, block string) {
		if !InBounds(p) || ChunkOf(p.X) != c {
			return
		}
		if _, exists := w.blocks[p]; exists {
			return
		}
		if block == "" || block == Air {
			return
		}
		w.blocks[p] = block
		generated[p] = block
	})
	if w.onChunk != nil {
		w.onChunk(c, generated)
	}
	return true
}

// EnsureAround generates the chunks within radius chunks of column x.
func (w *World) EnsureAround(x int, radius int) []int {
	var generated []int
	center := ChunkOf(x)
	for c := center - radius; c <= center+radius; c++ {
		if w.EnsureChunk(c) {
			generated = append(generated, c)
		}
	}
	return generated
}
