package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 16
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// NameProvider authenticates LAN players by the username they join with.
// There are no accounts on a LAN server, so the username is the UID.
type NameProvider struct {
	// Reserved names can not be claimed by a joining player.
	Reserved []string
}

func NewNameProvider(reserved ...string) *NameProvider {
	return &NameProvider{Reserved: reserved}
}

func (p *NameProvider) VerifyToken(_ context.Context, username string) (*TokenClaims, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	for _, reserved := range p.Reserved {
		if strings.EqualFold(reserved, username) {
			return nil, fmt.Errorf("%w: username %q is reserved", ErrInvalidToken, username)
		}
	}
	return &TokenClaims{UID: username}, nil
}

// ValidateUsername checks length and characters of a player name.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be %d to %d characters", ErrInvalidToken, MinUsernameLength, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username may only contain letters, digits and underscores", ErrInvalidToken)
	}
	return nil
}
