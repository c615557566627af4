package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a block coordinate. Y grows downward.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key renders the position as the "x,y" form used in save files.
func (p Pos) Key() string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

func (p Pos) String() string {
	return p.Key()
}

// ParseKey is the inverse of Pos.Key.
func ParseKey(key string) (Pos, error) {
	xs, ys, ok := strings.Cut(key, ",")
	if !ok {
		return Pos{}, fmt.Errorf("invalid block key %q", key)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Pos{}, fmt.Errorf("invalid block key %q: %v", key, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Pos{}, fmt.Errorf("invalid block key %q: %v", key, err)
	}
	return Pos{X: x, Y: y}, nil
}

func (p Pos) MarshalText() ([]byte, error) {
	return []byte(p.Key()), nil
}

func (p *Pos) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
