package state

import (
	"context"
	"fmt"
	"sync"

	gametypes "github.com/cbodonnell/orderstone/pkg/game/types"
)

type InMemoryStateManager struct {
	lock      sync.RWMutex
	gameState *gametypes.GameState
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		gameState: gametypes.NewGameState(nil).Copy(),
	}
}

// Get returns a copy so callers may read it without holding the lock.
func (m *InMemoryStateManager) Get(ctx context.Context) (*gametypes.GameState, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.gameState.Copy(), nil
}

// Set stores a copy of gameState. The game loop keeps mutating its own
// state after publishing it.
func (m *InMemoryStateManager) Set(ctx context.Context, gameState *gametypes.GameState) error {
	if gameState == nil {
		return fmt.Errorf("game state is nil")
	}

	snapshot := gameState.Copy()

	m.lock.Lock()
	defer m.lock.Unlock()
	m.gameState = snapshot
	return nil
}
