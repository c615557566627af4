package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/repositories"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/state"
)

const (
	// DefaultDrainTimeout bounds how long pending saves are awaited on shutdown
	DefaultDrainTimeout = 10 * time.Second
	storageTimeout      = 5 * time.Second
)

// SaveRequest asks for a world file and/or player profiles to be written.
type SaveRequest struct {
	World    *saves.WorldSave
	Profiles []*models.PlayerProfile
	// Done receives the result when set. It must be buffered.
	Done chan<- error
}

type SaveWorker struct {
	store           *saves.Store
	repository      repositories.Repository
	stateManager    state.StateManager
	saveRequestChan <-chan SaveRequest
	chatRecordChan  <-chan *models.ChatRecord
	blockChangeChan <-chan *models.BlockChange
	interval        time.Duration
	drainTimeout    time.Duration
}

type NewSaveWorkerOptions struct {
	Store      *saves.Store
	Repository repositories.Repository
	// StateManager supplies the snapshot whose online players are saved on every interval
	StateManager    state.StateManager
	SaveRequestChan <-chan SaveRequest
	ChatRecordChan  <-chan *models.ChatRecord
	BlockChangeChan <-chan *models.BlockChange
	Interval        time.Duration
	DrainTimeout    time.Duration
}

// NewSaveWorker creates a new SaveWorker.
// The worker processes save requests from the game loop, persists chat and
// block history as it arrives and periodically saves the online players.
// After ctx is cancelled it keeps serving save requests until the request
// channel is closed or the drain timeout passes.
func NewSaveWorker(opts NewSaveWorkerOptions) *SaveWorker {
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	return &SaveWorker{
		store:           opts.Store,
		repository:      opts.Repository,
		stateManager:    opts.StateManager,
		saveRequestChan: opts.SaveRequestChan,
		chatRecordChan:  opts.ChatRecordChan,
		blockChangeChan: opts.BlockChangeChan,
		interval:        opts.Interval,
		drainTimeout:    opts.DrainTimeout,
	}
}

func (w *SaveWorker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 && w.stateManager != nil {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	requests := w.saveRequestChan
	for {
		select {
		case <-ctx.Done():
			w.drain(requests)
			return
		case req, ok := <-requests:
			if !ok {
				requests = nil
				continue
			}
			w.handleSaveRequest(ctx, req)
		case record := <-w.chatRecordChan:
			w.saveChatRecord(ctx, record)
		case change := <-w.blockChangeChan:
			w.saveBlockChange(ctx, change)
		case t := <-tick:
			w.savePlayers(ctx, t)
		}
	}
}

// drain finishes the work the game loop queued before shutting down.
func (w *SaveWorker) drain(requests <-chan SaveRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	w.drainHistory(ctx)
	for requests != nil {
		select {
		case req, ok := <-requests:
			if !ok {
				requests = nil
				continue
			}
			w.handleSaveRequest(ctx, req)
		case <-ctx.Done():
			log.Warn("Timed out waiting for pending saves")
			return
		}
	}
	w.drainHistory(ctx)
}

func (w *SaveWorker) drainHistory(ctx context.Context) {
	for {
		select {
		case record := <-w.chatRecordChan:
			w.saveChatRecord(ctx, record)
		case change := <-w.blockChangeChan:
			w.saveBlockChange(ctx, change)
		default:
			return
		}
	}
}

func (w *SaveWorker) handleSaveRequest(ctx context.Context, req SaveRequest) {
	err := w.save(ctx, req)
	if err != nil {
		log.Error("Failed to save: %v", err)
	}
	if req.Done != nil {
		req.Done <- err
	}
}

func (w *SaveWorker) save(ctx context.Context, req SaveRequest) error {
	var errs []error
	if req.World != nil && w.store != nil {
		if err := w.store.Save(req.World); err != nil {
			errs = append(errs, fmt.Errorf("failed to save world %q: %v", req.World.Name, err))
		} else {
			log.Info("Saved world %q (%d blocks, %d players)", req.World.Name, len(req.World.Blocks), len(req.World.Players))
		}
	}
	if w.repository == nil {
		return errors.Join(errs...)
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if req.World != nil {
		info := &models.WorldInfo{
			ID:         req.World.ID.String(),
			Name:       req.World.Name,
			Seed:       req.World.Seed,
			Created:    req.World.Created,
			LastPlayed: req.World.LastPlayed,
		}
		if err := w.repository.UpsertWorld(ctx, info); err != nil {
			errs = append(errs, err)
		}
	}
	for _, profile := range req.Profiles {
		if err := w.repository.SavePlayerProfile(ctx, profile); err != nil {
			errs = append(errs, fmt.Errorf("failed to save profile %s: %v", profile.Username, err))
		}
	}
	return errors.Join(errs...)
}

// savePlayers stores the online players of the latest game state snapshot.
func (w *SaveWorker) savePlayers(ctx context.Context, t time.Time) {
	if w.repository == nil {
		return
	}
	gameState, err := w.stateManager.Get(ctx)
	if err != nil {
		log.Error("Failed to get current game state: %v", err)
		return
	}
	if len(gameState.Players) == 0 {
		return
	}

	profiles := make([]*models.PlayerProfile, 0, len(gameState.Players))
	for _, player := range gameState.Players {
		profiles = append(profiles, &models.PlayerProfile{
			WorldID:   gameState.WorldID.String(),
			Username:  player.Username,
			Record:    player.Record(),
			UpdatedAt: t.UTC(),
		})
	}
	if err := w.save(ctx, SaveRequest{Profiles: profiles}); err != nil {
		log.Error("Failed to save players: %v", err)
		return
	}
	log.Debug("Saved %d player profiles", len(profiles))
}

func (w *SaveWorker) saveChatRecord(ctx context.Context, record *models.ChatRecord) {
	if w.repository == nil || record == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if err := w.repository.SaveChatRecord(ctx, record); err != nil {
		log.Error("Failed to save chat record: %v", err)
	}
}

func (w *SaveWorker) saveBlockChange(ctx context.Context, change *models.BlockChange) {
	if w.repository == nil || change == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if err := w.repository.SaveBlockChange(ctx, change); err != nil {
		log.Error("Failed to save block change: %v", err)
	}
}
