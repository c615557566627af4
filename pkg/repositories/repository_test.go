package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbodonnell/orderstone/pkg/items"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresURLEnv names a database the Postgres tests may create tables in
const postgresURLEnv = "ORDERSTONE_TEST_POSTGRES_URL"

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "orderstone.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(ctx) })

	testRepository(t, repo)
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv(postgresURLEnv)
	if url == "" {
		t.Skipf("%s is not set", postgresURLEnv)
	}
	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(ctx) })

	testRepository(t, repo)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&ErrNotFound{}))
	assert.False(t, IsNotFound(assert.AnError))
	assert.Equal(t, "player profile not found", (&ErrNotFound{What: "player profile"}).Error())
}

func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()
	worldID := uuid.NewString()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("worlds", func(t *testing.T) {
		info := &models.WorldInfo{ID: worldID, Name: "Test World", Seed: 99, Created: base, LastPlayed: base}
		require.NoError(t, repo.UpsertWorld(ctx, info))
		info.Name = "Renamed World"
		info.LastPlayed = base.Add(time.Hour)
		require.NoError(t, repo.UpsertWorld(ctx, info))

		worlds, err := repo.ListWorlds(ctx)
		require.NoError(t, err)
		var found *models.WorldInfo
		for _, w := range worlds {
			if w.ID == worldID {
				found = w
			}
		}
		require.NotNil(t, found)
		assert.Equal(t, "Renamed World", found.Name)
		assert.Equal(t, int64(99), found.Seed)
		assert.True(t, found.LastPlayed.Equal(base.Add(time.Hour)))
	})

	t.Run("player profiles", func(t *testing.T) {
		_, err := repo.LoadPlayerProfile(ctx, worldID, "steve")
		assert.True(t, IsNotFound(err))

		record := saves.NewPlayerRecord("steve", permissions.Moderator)
		record.X = 12.5
		record.Coins = 40
		record.Inventory[2] = &items.Stack{Type: "bread", Count: 3}
		require.NoError(t, repo.SavePlayerProfile(ctx, &models.PlayerProfile{
			WorldID: worldID, Username: "steve", Record: record, UpdatedAt: base,
		}))

		record.Coins = 55
		require.NoError(t, repo.SavePlayerProfile(ctx, &models.PlayerProfile{
			WorldID: worldID, Username: "steve", Record: record, UpdatedAt: base.Add(time.Minute),
		}))

		profile, err := repo.LoadPlayerProfile(ctx, worldID, "Steve")
		require.NoError(t, err)
		assert.Equal(t, "steve", profile.Username)
		assert.Equal(t, int64(55), profile.Record.Coins)
		assert.Equal(t, 12.5, profile.Record.X)
		assert.Equal(t, permissions.Moderator, profile.Record.Permission)
		assert.Equal(t, &items.Stack{Type: "bread", Count: 3}, profile.Record.Inventory[2])
		assert.True(t, profile.UpdatedAt.Equal(base.Add(time.Minute)))

		_, err = repo.LoadPlayerProfile(ctx, uuid.NewString(), "steve")
		assert.True(t, IsNotFound(err))

		require.NoError(t, repo.SavePlayerProfile(ctx, &models.PlayerProfile{
			WorldID: worldID, Username: "alex", Record: saves.NewPlayerRecord("alex", permissions.Player), UpdatedAt: base,
		}))
		profiles, err := repo.ListPlayerProfiles(ctx, worldID)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "alex", profiles[0].Username)
		assert.Equal(t, "steve", profiles[1].Username)
	})

	t.Run("chat records", func(t *testing.T) {
		for i, text := range []string{"one", "two", "three"} {
			require.NoError(t, repo.SaveChatRecord(ctx, &models.ChatRecord{
				ID:        uuid.NewString(),
				WorldID:   worldID,
				Kind:      "player",
				Channel:   "world",
				From:      "steve",
				Text:      text,
				Timestamp: base.Add(time.Duration(i) * time.Second),
			}))
		}

		records, err := repo.ListChatRecords(ctx, worldID, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "two", records[0].Text)
		assert.Equal(t, "three", records[1].Text)
		assert.Equal(t, "steve", records[1].From)

		all, err := repo.ListChatRecords(ctx, worldID, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("block changes", func(t *testing.T) {
		changes := []*models.BlockChange{
			{WorldID: worldID, Username: "steve", Action: "break", X: 1, Y: 48, Block: "grass", Timestamp: base},
			{WorldID: worldID, Username: "steve", Action: "place", X: 1, Y: 48, Block: "stone", Timestamp: base.Add(time.Second)},
			{WorldID: worldID, Username: "alex", Action: "place", X: 2, Y: 47, Block: "chest", Timestamp: base.Add(2 * time.Second)},
		}
		for _, c := range changes {
			require.NoError(t, repo.SaveBlockChange(ctx, c))
			assert.NotZero(t, c.ID)
		}

		got, err := repo.ListBlockChanges(ctx, worldID, base.Add(time.Second))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "stone", got[0].Block)
		assert.Equal(t, "chest", got[1].Block)
		assert.Equal(t, "alex", got[1].Username)
		assert.True(t, got[1].Timestamp.Equal(base.Add(2*time.Second)))
	})
}
