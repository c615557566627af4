package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and applies the embedded
// migrations. The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := connectDb(ctx, connStr)
	if err != nil {
		return nil, err
	}

	scripts, err := loadMigrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	for _, script := range scripts {
		if _, err := pool.Exec(ctx, script.sql); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to execute migration %s: %v", script.name, err)
		}
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func connectDb(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	log.Info("Connected to %s as %s", database, username)

	return pool, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) UpsertWorld(ctx context.Context, world *models.WorldInfo) error {
	q := `
	INSERT INTO worlds (world_id, name, seed, created_at, last_played_at) VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (world_id) DO UPDATE SET name = $2, last_played_at = $5;
	`
	_, err := r.pool.Exec(ctx, q, world.ID, world.Name, world.Seed, world.Created.UnixMilli(), world.LastPlayed.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert world: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ListWorlds(ctx context.Context) ([]*models.WorldInfo, error) {
	rows, err := r.pool.Query(ctx, "SELECT world_id, name, seed, created_at, last_played_at FROM worlds ORDER BY last_played_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query worlds: %v", err)
	}
	defer rows.Close()

	worlds := []*models.WorldInfo{}
	for rows.Next() {
		w := &models.WorldInfo{}
		var created, lastPlayed int64
		if err := rows.Scan(&w.ID, &w.Name, &w.Seed, &created, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan world: %v", err)
		}
		w.Created = time.UnixMilli(created).UTC()
		w.LastPlayed = time.UnixMilli(lastPlayed).UTC()
		worlds = append(worlds, w)
	}
	return worlds, rows.Err()
}

func (r *PostgresRepository) SavePlayerProfile(ctx context.Context, profile *models.PlayerProfile) error {
	data, err := json.Marshal(profile.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal player record: %v", err)
	}
	q := `
	INSERT INTO player_profiles (world_id, username, data, updated_at) VALUES ($1, $2, $3, $4)
	ON CONFLICT (world_id, username) DO UPDATE SET data = $3, updated_at = $4;
	`
	_, err = r.pool.Exec(ctx, q, profile.WorldID, profile.Username, data, profile.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save player profile: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadPlayerProfile(ctx context.Context, worldID string, username string) (*models.PlayerProfile, error) {
	q := `
	SELECT username, data, updated_at FROM player_profiles WHERE world_id = $1 AND lower(username) = lower($2);
	`
	profile := &models.PlayerProfile{WorldID: worldID}
	var data []byte
	var updated int64
	if err := r.pool.QueryRow(ctx, q, worldID, username).Scan(&profile.Username, &data, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{What: "player profile"}
		}
		return nil, fmt.Errorf("failed to scan player profile: %v", err)
	}
	if err := decodeProfile(profile, data, updated); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *PostgresRepository) ListPlayerProfiles(ctx context.Context, worldID string) ([]*models.PlayerProfile, error) {
	rows, err := r.pool.Query(ctx, "SELECT username, data, updated_at FROM player_profiles WHERE world_id = $1 ORDER BY username", worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query player profiles: %v", err)
	}
	defer rows.Close()

	profiles := []*models.PlayerProfile{}
	for rows.Next() {
		profile := &models.PlayerProfile{WorldID: worldID}
		var data []byte
		var updated int64
		if err := rows.Scan(&profile.Username, &data, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan player profile: %v", err)
		}
		if err := decodeProfile(profile, data, updated); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *PostgresRepository) SaveChatRecord(ctx context.Context, record *models.ChatRecord) error {
	q := `
	INSERT INTO chat_messages (message_id, world_id, kind, channel, sender, recipient, body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (message_id) DO NOTHING;
	`
	_, err := r.pool.Exec(ctx, q, record.ID, record.WorldID, record.Kind, record.Channel, record.From, record.To, record.Text, record.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert chat record: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ListChatRecords(ctx context.Context, worldID string, limit int) ([]*models.ChatRecord, error) {
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	q := `
	SELECT message_id, kind, channel, sender, recipient, body, created_at FROM (
		SELECT * FROM chat_messages WHERE world_id = $1 ORDER BY created_at DESC LIMIT $2
	) recent ORDER BY created_at ASC;
	`
	rows, err := r.pool.Query(ctx, q, worldID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat records: %v", err)
	}
	defer rows.Close()

	records := []*models.ChatRecord{}
	for rows.Next() {
		record := &models.ChatRecord{WorldID: worldID}
		var created int64
		if err := rows.Scan(&record.ID, &record.Kind, &record.Channel, &record.From, &record.To, &record.Text, &created); err != nil {
			return nil, fmt.Errorf("failed to scan chat record: %v", err)
		}
		record.Timestamp = time.UnixMilli(created).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *PostgresRepository) SaveBlockChange(ctx context.Context, change *models.BlockChange) error {
	q := `
	INSERT INTO block_changes (world_id, username, action, x, y, block, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING change_id;
	`
	err := r.pool.QueryRow(ctx, q, change.WorldID, change.Username, change.Action, change.X, change.Y, change.Block, change.Timestamp.UnixMilli()).Scan(&change.ID)
	if err != nil {
		return fmt.Errorf("failed to insert block change: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ListBlockChanges(ctx context.Context, worldID string, since time.Time) ([]*models.BlockChange, error) {
	q := `
	SELECT change_id, username, action, x, y, block, created_at FROM block_changes
	WHERE world_id = $1 AND created_at >= $2 ORDER BY created_at, change_id;
	`
	rows, err := r.pool.Query(ctx, q, worldID, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query block changes: %v", err)
	}
	defer rows.Close()

	changes := []*models.BlockChange{}
	for rows.Next() {
		change := &models.BlockChange{WorldID: worldID}
		var created int64
		if err := rows.Scan(&change.ID, &change.Username, &change.Action, &change.X, &change.Y, &change.Block, &created); err != nil {
			return nil, fmt.Errorf("failed to scan block change: %v", err)
		}
		change.Timestamp = time.UnixMilli(created).UTC()
		changes = append(changes, change)
	}
	return changes, rows.Err()
}
