package models

import (
	"time"

	"github.com/cbodonnell/orderstone/pkg/saves"
)

// PlayerProfile is a player's record in one world.
type PlayerProfile struct {
	WorldID   string              `json:"world_id"`
	Username  string              `json:"username"`
	Record    *saves.PlayerRecord `json:"record"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type ChatRecord struct {
	ID        string    `json:"id"`
	WorldID   string    `json:"world_id"`
	Kind      string    `json:"kind"`
	Channel   string    `json:"channel"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type BlockChange struct {
	ID        int64     `json:"id"`
	WorldID   string    `json:"world_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Block     string    `json:"block"`
	Timestamp time.Time `json:"timestamp"`
}

type WorldInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Seed       int64     `json:"seed"`
	Created    time.Time `json:"created"`
	LastPlayed time.Time `json:"last_played"`
}
