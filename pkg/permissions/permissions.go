package permissions

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a player's permission level on a server.
type Level int

const (
	Guest Level = iota
	Player
	Moderator
	Admin
	Owner
)

func (l Level) String() string {
	switch l {
	case Guest:
		return "guest"
	case Player:
		return "player"
	case Moderator:
		return "moderator"
	case Admin:
		return "admin"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= Guest && l <= Owner
}

// Has reports whether l meets the required level.
func (l Level) Has(required Level) bool {
	return l >= required
}

// CanModifyWorld reports whether blocks may be placed or broken.
func (l Level) CanModifyWorld() bool {
	return l.Has(Player)
}

// CanGrant reports whether a player at level l may set another player to target.
// Granting requires Admin and never exceeds the granter's own level.
func (l Level) CanGrant(target Level) bool {
	return l.Has(Admin) && target.Valid() && target <= l
}

// ParseLevel accepts a level name or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		level := Level(n)
		if !level.Valid() {
			return Guest, fmt.Errorf("permission level out of range: %d", n)
		}
		return level, nil
	}
	for level := Guest; level <= Owner; level++ {
		if level.String() == s {
			return level, nil
		}
	}
	return Guest, fmt.Errorf("unknown permission level: %q", s)
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid permission level: %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	level, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}
