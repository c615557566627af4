package types

import "github.com/cbodonnell/orderstone/pkg/saves"

type ConnectPlayerEvent struct {
	ClientID  uint32
	Username  string
	Character string
	// Profile is the player's last stored record, nil for unknown players
	Profile *saves.PlayerRecord
}

type DisconnectPlayerEvent struct {
	ClientID uint32
	Username string
}
