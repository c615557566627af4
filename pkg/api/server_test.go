package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	repomocks "github.com/cbodonnell/orderstone/mocks/github.com/cbodonnell/orderstone/pkg/repositories"
	"github.com/cbodonnell/orderstone/pkg/api/handlers"
	authproviders "github.com/cbodonnell/orderstone/pkg/auth/providers"
	gametypes "github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/state"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testWorldID = uuid.MustParse("6f1c2c7e-8a35-4c4e-9d0f-1b0d3c6b2a11")

type fakeMods []mods.Info

func (f fakeMods) Mods() []mods.Info { return f }

func newTestState(t *testing.T) *state.InMemoryStateManager {
	t.Helper()
	gameState := gametypes.NewGameState(nil)
	gameState.WorldID = testWorldID
	gameState.WorldName = "Castle Hill"
	gameState.HostName = "Steve"
	gameState.Seed = 42

	steve := saves.NewPlayerRecord("Steve", permissions.Owner)
	steve.Coins = 30
	gameState.AddPlayer(1, gametypes.NewPlayerState(1, steve))
	gameState.AddPlayer(2, gametypes.NewPlayerState(2, saves.NewPlayerRecord("Alex", permissions.Player)))

	stateManager := state.NewInMemoryStateManager()
	require.NoError(t, stateManager.Set(context.Background(), gameState))
	return stateManager
}

func serve(router http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t)})

	rec := serve(router, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var status handlers.StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, testWorldID.String(), status.WorldID)
	assert.Equal(t, "Castle Hill", status.WorldName)
	assert.Equal(t, "Steve", status.Host)
	assert.Equal(t, int64(42), status.Seed)
	assert.Equal(t, 2, status.Players)
	assert.True(t, status.Time.IsDay)
}

func TestStatus_methodNotAllowed(t *testing.T) {
	router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t)})

	rec := serve(router, http.MethodPost, "/status", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(router, http.MethodOptions, "/status", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPlayers(t *testing.T) {
	t.Run("public without an auth provider", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t)})

		rec := serve(router, http.MethodGet, "/players", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var players []map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&players))
		require.Len(t, players, 2)
		assert.Equal(t, "Alex", players[0]["username"])
		assert.Equal(t, "player", players[0]["permission"])
		assert.Equal(t, "Steve", players[1]["username"])
		assert.Equal(t, "owner", players[1]["permission"])
		assert.Equal(t, float64(30), players[1]["coins"])
	})

	t.Run("bearer token required with an auth provider", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{
			StateManager: newTestState(t),
			AuthProvider: authproviders.NewStaticTokenProvider("s3cret", ""),
		})

		rec := serve(router, http.MethodGet, "/players", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = serve(router, http.MethodGet, "/players", http.Header{"Authorization": {"Bearer wrong"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = serve(router, http.MethodGet, "/players", http.Header{"Authorization": {"Token s3cret"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = serve(router, http.MethodGet, "/players", http.Header{"Authorization": {"Bearer s3cret"}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other endpoints stay public", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{
			StateManager: newTestState(t),
			AuthProvider: authproviders.NewStaticTokenProvider("s3cret", ""),
		})

		rec := serve(router, http.MethodGet, "/status", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestChat(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListChatRecords(mock.Anything, testWorldID.String(), 50).Return([]*models.ChatRecord{
			{ID: "a", WorldID: testWorldID.String(), Kind: "chat", Channel: "world", From: "Steve", Text: "hi"},
		}, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/chat", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var records []*models.ChatRecord
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
		require.Len(t, records, 1)
		assert.Equal(t, "hi", records[0].Text)
	})

	t.Run("limit is capped", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListChatRecords(mock.Anything, testWorldID.String(), handlers.MaxChatLimit).Return(nil, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/chat?limit=100000", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		for _, target := range []string{"/chat?limit=abc", "/chat?limit=0", "/chat?limit=-3"} {
			rec := serve(router, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListChatRecords(mock.Anything, mock.Anything, 5).Return(nil, errors.New("disk on fire")).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/chat?limit=5", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("no repository", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t)})

		rec := serve(router, http.MethodGet, "/chat", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMods(t *testing.T) {
	router := NewRouter(NewAPIServerOptions{
		StateManager: newTestState(t),
		Mods: fakeMods{
			{ID: "torches", Name: "Torches", Version: "1.0.0", Kind: mods.KindLua, Status: mods.StatusLoaded},
			{ID: "broken", Name: "broken", Version: "0.0.0", Kind: mods.KindLua, Status: mods.StatusFailed, Error: "syntax error"},
		},
	})

	rec := serve(router, http.MethodGet, "/mods", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []mods.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "torches", infos[0].ID)
	assert.Equal(t, mods.StatusFailed, infos[1].Status)
	assert.Equal(t, "syntax error", infos[1].Error)

	rec = serve(NewRouter(NewAPIServerOptions{StateManager: newTestState(t)}), http.MethodGet, "/mods", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestWorlds(t *testing.T) {
	store := saves.NewStore(saves.NewStoreOptions{Dir: t.TempDir()})
	_, err := store.Create("Castle Hill", 42)
	require.NoError(t, err)

	router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Worlds: store})

	rec := serve(router, http.MethodGet, "/worlds", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []saves.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Castle Hill", summaries[0].Name)
	assert.Equal(t, int64(42), summaries[0].Seed)

	rec = serve(NewRouter(NewAPIServerOptions{StateManager: newTestState(t)}), http.MethodGet, "/worlds", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProfiles(t *testing.T) {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	zoe := saves.NewPlayerRecord("Zoe", permissions.Moderator)
	zoe.Coins = 75

	t.Run("stored profiles", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListPlayerProfiles(mock.Anything, testWorldID.String()).Return([]*models.PlayerProfile{
			{WorldID: testWorldID.String(), Username: "Zoe", Record: zoe, UpdatedAt: updated},
			{WorldID: testWorldID.String(), Username: "Steve", Record: saves.NewPlayerRecord("Steve", permissions.Owner), UpdatedAt: updated},
			{WorldID: testWorldID.String(), Username: "ghost"},
		}, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/players/profiles", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var profiles []handlers.ProfileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&profiles))
		require.Len(t, profiles, 2)
		assert.Equal(t, "Steve", profiles[0].Username)
		assert.True(t, profiles[0].Online)
		assert.Equal(t, handlers.ProfileResponse{
			Username:   "Zoe",
			Permission: permissions.Moderator,
			Coins:      75,
			Character:  zoe.Characters.Selected,
			UpdatedAt:  updated,
		}, profiles[1])
	})

	t.Run("requires token", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{
			StateManager: newTestState(t),
			Repository:   repomocks.NewRepository(t),
			AuthProvider: authproviders.NewStaticTokenProvider("s3cret", ""),
		})

		rec := serve(router, http.MethodGet, "/players/profiles", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no repository", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t)})

		rec := serve(router, http.MethodGet, "/players/profiles", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestPlayedWorlds(t *testing.T) {
	t.Run("recorded worlds", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListWorlds(mock.Anything).Return([]*models.WorldInfo{
			{ID: testWorldID.String(), Name: "Castle Hill", Seed: 42},
		}, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/worlds/played", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var worlds []*models.WorldInfo
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&worlds))
		require.Len(t, worlds, 1)
		assert.Equal(t, "Castle Hill", worlds[0].Name)
	})

	t.Run("empty", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListWorlds(mock.Anything).Return(nil, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/worlds/played", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("repository error", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListWorlds(mock.Anything).Return(nil, errors.New("disk on fire")).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/worlds/played", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestBlockChanges(t *testing.T) {
	t.Run("since", func(t *testing.T) {
		since := time.UnixMilli(1700000000000)
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListBlockChanges(mock.Anything, testWorldID.String(), mock.MatchedBy(func(got time.Time) bool {
			return got.Equal(since)
		})).Return([]*models.BlockChange{
			{ID: 1, WorldID: testWorldID.String(), Username: "Steve", Action: "place", X: 3, Y: 4, Block: "stone"},
		}, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/blocks/changes?since=1700000000000", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var changes []*models.BlockChange
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&changes))
		require.Len(t, changes, 1)
		assert.Equal(t, "stone", changes[0].Block)
	})

	t.Run("everything by default", func(t *testing.T) {
		repository := repomocks.NewRepository(t)
		repository.EXPECT().ListBlockChanges(mock.Anything, testWorldID.String(), mock.MatchedBy(func(got time.Time) bool {
			return got.UnixMilli() == 0
		})).Return(nil, nil).Once()
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repository})

		rec := serve(router, http.MethodGet, "/blocks/changes", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid since", func(t *testing.T) {
		router := NewRouter(NewAPIServerOptions{StateManager: newTestState(t), Repository: repomocks.NewRepository(t)})

		rec := serve(router, http.MethodGet, "/blocks/changes?since=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
