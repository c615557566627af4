package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies the embedded
// migrations.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a single connection serializes writers and keeps :memory: databases intact
	db.SetMaxOpenConns(1)

	scripts, err := loadMigrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, script := range scripts {
		if _, err := db.ExecContext(ctx, script.sql); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %s: %v", script.name, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) UpsertWorld(ctx context.Context, world *models.WorldInfo) error {
	q := `
	INSERT INTO worlds (world_id, name, seed, created_at, last_played_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (world_id) DO UPDATE SET name = excluded.name, last_played_at = excluded.last_played_at;
	`
	_, err := r.db.ExecContext(ctx, q, world.ID, world.Name, world.Seed, world.Created.UnixMilli(), world.LastPlayed.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert world: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) ListWorlds(ctx context.Context) ([]*models.WorldInfo, error) {
	q := `
	SELECT world_id, name, seed, created_at, last_played_at FROM worlds ORDER BY last_played_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, q)
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

func (r *SQLiteRepository) SavePlayerProfile(ctx context.Context, profile *models.PlayerProfile) error {
	data, err := json.Marshal(profile.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal player record: %v", err)
	}
	q := `
	INSERT INTO player_profiles (world_id, username, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (world_id, username) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at;
	`
	_, err = r.db.ExecContext(ctx, q, profile.WorldID, profile.Username, string(data), profile.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save player profile: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadPlayerProfile(ctx context.Context, worldID string, username string) (*models.PlayerProfile, error) {
	q := `
	SELECT username, data, updated_at FROM player_profiles WHERE world_id = ? AND username = ?;
	`
	profile := &models.PlayerProfile{WorldID: worldID}
	var data string
	var updated int64
	if err := r.db.QueryRowContext(ctx, q, worldID, username).Scan(&profile.Username, &data, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{What: "player profile"}
		}
		return nil, fmt.Errorf("failed to scan player profile: %v", err)
	}
	if err := decodeProfile(profile, []byte(data), updated); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *SQLiteRepository) ListPlayerProfiles(ctx context.Context, worldID string) ([]*models.PlayerProfile, error) {
	q := `
	SELECT username, data, updated_at FROM player_profiles WHERE world_id = ? ORDER BY username;
	`
	rows, err := r.db.QueryContext(ctx, q, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query player profiles: %v", err)
	}
	defer rows.Close()

	profiles := []*models.PlayerProfile{}
	for rows.Next() {
		profile := &models.PlayerProfile{WorldID: worldID}
		var data string
		var updated int64
		if err := rows.Scan(&profile.Username, &data, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan player profile: %v", err)
		}
		if err := decodeProfile(profile, []byte(data), updated); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *SQLiteRepository) SaveChatRecord(ctx context.Context, record *models.ChatRecord) error {
	q := `
	INSERT OR IGNORE INTO chat_messages (message_id, world_id, kind, channel, sender, recipient, body, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, record.ID, record.WorldID, record.Kind, record.Channel, record.From, record.To, record.Text, record.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert chat record: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) ListChatRecords(ctx context.Context, worldID string, limit int) ([]*models.ChatRecord, error) {
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	q := `
	SELECT message_id, kind, channel, sender, recipient, body, created_at FROM (
		SELECT rowid AS seq, * FROM chat_messages WHERE world_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
	) ORDER BY created_at ASC, seq ASC;
	`
	rows, err := r.db.QueryContext(ctx, q, worldID, limit)
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

func (r *SQLiteRepository) SaveBlockChange(ctx context.Context, change *models.BlockChange) error {
	q := `
	INSERT INTO block_changes (world_id, username, action, x, y, block, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	res, err := r.db.ExecContext(ctx, q, change.WorldID, change.Username, change.Action, change.X, change.Y, change.Block, change.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert block change: %v", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		change.ID = id
	}
	return nil
}

func (r *SQLiteRepository) ListBlockChanges(ctx context.Context, worldID string, since time.Time) ([]*models.BlockChange, error) {
	q := `
	SELECT change_id, username, action, x, y, block, created_at FROM block_changes
	WHERE world_id = ? AND created_at >= ? ORDER BY created_at, change_id;
	`
	rows, err := r.db.QueryContext(ctx, q, worldID, since.UnixMilli())
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

func decodeProfile(profile *models.PlayerProfile, data []byte, updated int64) error {
	record := &saves.PlayerRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("failed to unmarshal player record %s: %v", profile.Username, err)
	}
	profile.Record = record
	profile.UpdatedAt = time.UnixMilli(updated).UTC()
	return nil
}
