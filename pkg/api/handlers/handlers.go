package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	gametypes "github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/repositories"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/state"
	"github.com/cbodonnell/orderstone/pkg/version"
)

// MaxChatLimit caps the limit query parameter of the chat endpoint
const MaxChatLimit = 500

// ModLister is satisfied by *mods.Manager.
type ModLister interface {
	Mods() []mods.Info
}

// WorldLister is satisfied by *saves.Store.
type WorldLister interface {
	List() ([]saves.Summary, error)
}

type StatusResponse struct {
	Version   string              `json:"version"`
	WorldID   string              `json:"world_id"`
	WorldName string              `json:"world_name"`
	Host      string              `json:"host"`
	Seed      int64               `json:"seed"`
	Players   int                 `json:"players"`
	Blocks    int                 `json:"blocks"`
	Chests    int                 `json:"chests"`
	Time      gametypes.WorldTime `json:"time"`
	Timestamp int64               `json:"timestamp"`
}

type PlayerResponse struct {
	ClientID   uint32            `json:"client_id"`
	Username   string            `json:"username"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Health     int               `json:"health"`
	MaxHealth  int               `json:"max_health"`
	Dead       bool              `json:"dead"`
	Permission permissions.Level `json:"permission"`
	Coins      int64             `json:"coins"`
	Character  string            `json:"character"`
}

// ProfileResponse is a stored player profile, online or not.
type ProfileResponse struct {
	Username   string            `json:"username"`
	Permission permissions.Level `json:"permission"`
	Coins      int64             `json:"coins"`
	Character  string            `json:"character"`
	Online     bool              `json:"online"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func HandleStatus(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}
		writeJSON(w, StatusResponse{
			Version:   version.Get(),
			WorldID:   gameState.WorldID.String(),
			WorldName: gameState.WorldName,
			Host:      gameState.HostName,
			Seed:      gameState.Seed,
			Players:   len(gameState.Players),
			Blocks:    gameState.BlockCount,
			Chests:    gameState.ChestCount,
			Time:      gameState.Time,
			Timestamp: gameState.Timestamp,
		})
	}
}

func HandleListPlayers(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}
		players := make([]PlayerResponse, 0, len(gameState.Players))
		for _, p := range gameState.Players {
			players = append(players, PlayerResponse{
				ClientID:   p.ClientID,
				Username:   p.Username,
				X:          p.X,
				Y:          p.Y,
				Health:     p.Health,
				MaxHealth:  p.MaxHealth,
				Dead:       p.Dead,
				Permission: p.Permission,
				Coins:      p.Wallet.Coins,
				Character:  p.Characters.Selected,
			})
		}
		sort.Slice(players, func(i, j int) bool {
			return players[i].Username < players[j].Username
		})
		writeJSON(w, players)
	}
}

func HandleListProfiles(stateManager state.StateManager, repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repository == nil {
			http.Error(w, "Player profiles are not persisted", http.StatusServiceUnavailable)
			return
		}
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}
		stored, err := repository.ListPlayerProfiles(r.Context(), gameState.WorldID.String())
		if err != nil {
			log.Error("failed to list player profiles: %v", err)
			http.Error(w, "Failed to list player profiles", http.StatusInternalServerError)
			return
		}
		profiles := make([]ProfileResponse, 0, len(stored))
		for _, profile := range stored {
			if profile.Record == nil {
				continue
			}
			_, online := gameState.PlayerByName(profile.Username)
			profiles = append(profiles, ProfileResponse{
				Username:   profile.Username,
				Permission: profile.Record.Permission,
				Coins:      profile.Record.Coins,
				Character:  profile.Record.Characters.Selected,
				Online:     online,
				UpdatedAt:  profile.UpdatedAt,
			})
		}
		sort.Slice(profiles, func(i, j int) bool {
			return profiles[i].Username < profiles[j].Username
		})
		writeJSON(w, profiles)
	}
}

func HandleListChat(stateManager state.StateManager, repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repository == nil {
			http.Error(w, "Chat history is not persisted", http.StatusServiceUnavailable)
			return
		}
		limit := repositories.DefaultChatLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(parsed, MaxChatLimit)
		}
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}
		records, err := repository.ListChatRecords(r.Context(), gameState.WorldID.String(), limit)
		if err != nil {
			log.Error("failed to list chat records: %v", err)
			http.Error(w, "Failed to list chat records", http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
	}
}

func HandleListMods(lister ModLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := []mods.Info{}
		if lister != nil {
			infos = append(infos, lister.Mods()...)
		}
		writeJSON(w, infos)
	}
}

func HandleListWorlds(lister WorldLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			http.Error(w, "World saves are not available", http.StatusServiceUnavailable)
			return
		}
		summaries, err := lister.List()
		if err != nil {
			log.Error("failed to list worlds: %v", err)
			http.Error(w, "Failed to list worlds", http.StatusInternalServerError)
			return
		}
		writeJSON(w, summaries)
	}
}

// HandleListPlayedWorlds lists the worlds recorded in the repository, which
// includes worlds whose save file has since been deleted.
func HandleListPlayedWorlds(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repository == nil {
			http.Error(w, "World history is not persisted", http.StatusServiceUnavailable)
			return
		}
		worlds, err := repository.ListWorlds(r.Context())
		if err != nil {
			log.Error("failed to list played worlds: %v", err)
			http.Error(w, "Failed to list played worlds", http.StatusInternalServerError)
			return
		}
		if worlds == nil {
			worlds = []*models.WorldInfo{}
		}
		writeJSON(w, worlds)
	}
}

func HandleListBlockChanges(stateManager state.StateManager, repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repository == nil {
			http.Error(w, "Block changes are not persisted", http.StatusServiceUnavailable)
			return
		}
		since := time.UnixMilli(0)
		if raw := r.URL.Query().Get("since"); raw != "" {
			ms, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || ms < 0 {
				http.Error(w, "since must be a unix timestamp in milliseconds", http.StatusBadRequest)
				return
			}
			since = time.UnixMilli(ms)
		}
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}
		changes, err := repository.ListBlockChanges(r.Context(), gameState.WorldID.String(), since)
		if err != nil {
			log.Error("failed to list block changes: %v", err)
			http.Error(w, "Failed to list block changes", http.StatusInternalServerError)
			return
		}
		writeJSON(w, changes)
	}
}
