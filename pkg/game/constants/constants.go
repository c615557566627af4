package constants

import "time"

const (
	// BlockSize is the edge of one block in collision-space pixels
	BlockSize float64 = 16.0

	// PlayerWidth is the player's width in blocks
	PlayerWidth float64 = 0.75
	// PlayerHeight is the player's height in blocks
	PlayerHeight float64 = 1.75
	// PlayerSpawnX is the column new players spawn above
	PlayerSpawnX int = 0

	// PlayerAttackDamage is the damage of one melee hit
	PlayerAttackDamage int = 2
	// PlayerAttackReach is how far the attack hitbox reaches past the player, in blocks
	PlayerAttackReach float64 = 1.0
	// PlayerKillReward is the number of coins awarded for a kill
	PlayerKillReward int64 = 10

	// ChunkRadius is the number of chunks kept generated on each side of a player
	ChunkRadius int = 2

	// DayLength is the game time between day/night toggles
	DayLength = 120 * time.Second
	// TimeSyncInterval is how often the time of day is sent to clients
	TimeSyncInterval = time.Second

	// DefaultTickInterval is the game loop period
	DefaultTickInterval = 50 * time.Millisecond
	// DefaultAutosaveInterval is how often the world file is written
	DefaultAutosaveInterval = 5 * time.Minute
)
