package repositories

import (
	"context"
	"time"

	"github.com/cbodonnell/orderstone/pkg/repositories/models"
)

// DefaultChatLimit is used when a non-positive limit is requested
const DefaultChatLimit = 50

type Repository interface {
	Close(ctx context.Context) error
	UpsertWorld(ctx context.Context, world *models.WorldInfo) error
	ListWorlds(ctx context.Context) ([]*models.WorldInfo, error)
	SavePlayerProfile(ctx context.Context, profile *models.PlayerProfile) error
	// LoadPlayerProfile returns an *ErrNotFound for unknown players
	LoadPlayerProfile(ctx context.Context, worldID string, username string) (*models.PlayerProfile, error)
	ListPlayerProfiles(ctx context.Context, worldID string) ([]*models.PlayerProfile, error)
	SaveChatRecord(ctx context.Context, record *models.ChatRecord) error
	// ListChatRecords returns the newest records, oldest first
	ListChatRecords(ctx context.Context, worldID string, limit int) ([]*models.ChatRecord, error)
	SaveBlockChange(ctx context.Context, change *models.BlockChange) error
	ListBlockChanges(ctx context.Context, worldID string, since time.Time) ([]*models.BlockChange, error)
}
