package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queuemocks "github.com/cbodonnell/orderstone/mocks/github.com/cbodonnell/orderstone/pkg/queue"
	repomocks "github.com/cbodonnell/orderstone/mocks/github.com/cbodonnell/orderstone/pkg/repositories"
	gametypes "github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/network"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/cbodonnell/orderstone/pkg/repositories"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sent struct {
	kind     string
	clientID uint32
	msg      *messages.Message
}

type fakeSender struct {
	lock sync.Mutex
	sent []sent
}

func (f *fakeSender) record(kind string, clientID uint32, msg *messages.Message) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.sent = append(f.sent, sent{kind: kind, clientID: clientID, msg: msg})
}

func (f *fakeSender) SendReliableMessageToAll(_ context.Context, msg *messages.Message) {
	f.record("all", 0, msg)
}

func (f *fakeSender) SendReliableMessageToAllExcept(_ context.Context, exceptID uint32, msg *messages.Message) {
	f.record("except", exceptID, msg)
}

func (f *fakeSender) SendReliableMessageToClient(_ context.Context, clientID uint32, msg *messages.Message) error {
	f.record("client", clientID, msg)
	return nil
}

func (f *fakeSender) SendUnreliableMessageToAll(_ context.Context, msg *messages.Message) {
	f.record("udp-all", 0, msg)
}

func (f *fakeSender) SendUnreliableMessageToClient(_ context.Context, clientID uint32, msg *messages.Message) error {
	f.record("udp-client", clientID, msg)
	return nil
}

func (f *fakeSender) Sent() []sent {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]sent(nil), f.sent...)
}

func TestServerMessageWorker_routesByDelivery(t *testing.T) {
	sender := &fakeSender{}
	ch := make(chan ServerMessage, 8)
	worker := NewServerMessageWorker(NewServerMessageWorkerOptions{
		Sender:            sender,
		ServerMessageChan: ch,
	})

	msg := &messages.Message{Type: messages.MessageTypeServerChat}
	ch <- ServerMessage{Delivery: DeliveryAll, Message: msg}
	ch <- ServerMessage{Delivery: DeliveryAllExcept, ClientID: 3, Message: msg}
	ch <- ServerMessage{Delivery: DeliveryClient, ClientID: 4, Message: msg}
	ch <- ServerMessage{Delivery: DeliveryAll, Unreliable: true, Message: msg}
	ch <- ServerMessage{Delivery: DeliveryClient, ClientID: 5, Unreliable: true, Message: msg}
	close(ch)

	done := make(chan struct{})
	go func() {
		worker.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after the channel was closed")
	}

	got := sender.Sent()
	require.Len(t, got, 5)
	assert.Equal(t, "all", got[0].kind)
	assert.Equal(t, sent{kind: "except", clientID: 3, msg: msg}, got[1])
	assert.Equal(t, sent{kind: "client", clientID: 4, msg: msg}, got[2])
	assert.Equal(t, "udp-all", got[3].kind)
	assert.Equal(t, sent{kind: "udp-client", clientID: 5, msg: msg}, got[4])
}

func runConnectionWorker(t *testing.T, repo repositories.Repository, q queue.Queue, events ...network.ClientEvent) {
	t.Helper()
	ch := make(chan network.ClientEvent, len(events))
	for _, event := range events {
		ch <- event
	}
	close(ch)

	worker := NewConnectionEventWorker(NewConnectionEventWorkerOptions{
		ClientEventChan:      ch,
		Repository:           repo,
		ConnectionEventQueue: q,
		WorldID:              "world-1",
	})
	worker.Start(context.Background())
}

func TestConnectionEventWorker_connectLoadsProfile(t *testing.T) {
	record := saves.NewPlayerRecord("alice", permissions.Moderator)
	record.Coins = 42

	repo := repomocks.NewRepository(t)
	repo.EXPECT().LoadPlayerProfile(mock.Anything, "world-1", "alice").
		Return(&models.PlayerProfile{WorldID: "world-1", Username: "alice", Record: record}, nil)

	q := queue.NewInMemoryQueue(8)
	runConnectionWorker(t, repo, q, network.ClientEvent{
		ClientID: 7,
		Type:     network.ClientEventTypeConnect,
		Data:     network.ClientConnectData{Username: "alice", Character: "knight"},
	})

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	require.Len(t, items, 1)
	connect, ok := items[0].(*gametypes.ConnectPlayerEvent)
	require.True(t, ok)
	assert.Equal(t, uint32(7), connect.ClientID)
	assert.Equal(t, "alice", connect.Username)
	assert.Equal(t, "knight", connect.Character)
	require.NotNil(t, connect.Profile)
	assert.Equal(t, int64(42), connect.Profile.Coins)
}

func TestConnectionEventWorker_missingProfile(t *testing.T) {
	repo := repomocks.NewRepository(t)
	repo.EXPECT().LoadPlayerProfile(mock.Anything, "world-1", "bob").
		Return(nil, &repositories.ErrNotFound{What: "player profile"})

	q := queue.NewInMemoryQueue(8)
	runConnectionWorker(t, repo, q, network.ClientEvent{
		ClientID: 1,
		Type:     network.ClientEventTypeConnect,
		Data:     network.ClientConnectData{Username: "bob"},
	})

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].(*gametypes.ConnectPlayerEvent).Profile)
}

func TestConnectionEventWorker_disconnect(t *testing.T) {
	q := queuemocks.NewQueue(t)
	q.EXPECT().Enqueue(&gametypes.DisconnectPlayerEvent{ClientID: 9, Username: "carol"}).Return(nil)

	runConnectionWorker(t, nil, q, network.ClientEvent{
		ClientID: 9,
		Type:     network.ClientEventTypeDisconnect,
		Data:     network.ClientDisconnectData{Username: "carol"},
	})
}

func TestSaveWorker_savesWorldAndProfiles(t *testing.T) {
	store := saves.NewStore(saves.NewStoreOptions{Dir: t.TempDir()})
	save, err := store.Create("Test World", 7)
	require.NoError(t, err)
	save.Blocks["0,10"] = "stone"

	profile := &models.PlayerProfile{
		WorldID:  save.ID.String(),
		Username: "alice",
		Record:   saves.NewPlayerRecord("alice", permissions.Player),
	}

	repo := repomocks.NewRepository(t)
	repo.EXPECT().UpsertWorld(mock.Anything, mock.MatchedBy(func(info *models.WorldInfo) bool {
		return info.ID == save.ID.String() && info.Name == "Test World" && info.Seed == 7
	})).Return(nil)
	repo.EXPECT().SavePlayerProfile(mock.Anything, profile).Return(nil)

	requests := make(chan SaveRequest, 1)
	worker := NewSaveWorker(NewSaveWorkerOptions{
		Store:           store,
		Repository:      repo,
		SaveRequestChan: requests,
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(stopped)
	}()

	result := make(chan error, 1)
	requests <- SaveRequest{World: save, Profiles: []*models.PlayerProfile{profile}, Done: result}
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("save was not acknowledged")
	}
	cancel()
	close(requests)
	<-stopped

	loaded, err := store.Load("Test World")
	require.NoError(t, err)
	assert.Equal(t, "stone", loaded.Blocks["0,10"])
}

func TestSaveWorker_drainsRequestsAfterCancel(t *testing.T) {
	store := saves.NewStore(saves.NewStoreOptions{Dir: t.TempDir()})
	save, err := store.Create("Drained", 1)
	require.NoError(t, err)
	save.Blocks["1,1"] = "dirt"

	requests := make(chan SaveRequest, 1)
	worker := NewSaveWorker(NewSaveWorkerOptions{
		Store:           store,
		SaveRequestChan: requests,
		DrainTimeout:    2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stopped := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(stopped)
	}()

	// the final save arrives after shutdown has begun
	requests <- SaveRequest{World: save}
	close(requests)
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after the request channel was closed")
	}

	loaded, err := store.Load("Drained")
	require.NoError(t, err)
	assert.Equal(t, "dirt", loaded.Blocks["1,1"])
}

func TestSaveWorker_reportsErrors(t *testing.T) {
	repo := repomocks.NewRepository(t)
	repo.EXPECT().SavePlayerProfile(mock.Anything, mock.Anything).Return(errors.New("disk full"))

	worker := NewSaveWorker(NewSaveWorkerOptions{Repository: repo})
	err := worker.save(context.Background(), SaveRequest{
		Profiles: []*models.PlayerProfile{{Username: "dave", Record: saves.NewPlayerRecord("dave", permissions.Guest)}},
	})
	assert.ErrorContains(t, err, "disk full")
}

func TestSaveWorker_persistsHistory(t *testing.T) {
	record := &models.ChatRecord{ID: "m1", WorldID: "w", Text: "hi"}
	change := &models.BlockChange{WorldID: "w", Username: "alice", Action: "place", X: 1, Y: 2, Block: "stone"}

	repo := repomocks.NewRepository(t)
	repo.EXPECT().SaveChatRecord(mock.Anything, record).Return(nil)
	repo.EXPECT().SaveBlockChange(mock.Anything, change).Return(nil)

	chatChan := make(chan *models.ChatRecord, 1)
	blockChan := make(chan *models.BlockChange, 1)
	chatChan <- record
	blockChan <- change

	requests := make(chan SaveRequest)
	close(requests)
	worker := NewSaveWorker(NewSaveWorkerOptions{
		Repository:      repo,
		SaveRequestChan: requests,
		ChatRecordChan:  chatChan,
		BlockChangeChan: blockChan,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker.Start(ctx)
}

func TestSaveWorker_periodicPlayerSave(t *testing.T) {
	stateManager := state.NewInMemoryStateManager()
	gameState := gametypes.NewGameState(nil)
	gameState.AddPlayer(1, gametypes.NewPlayerState(1, saves.NewPlayerRecord("erin", permissions.Player)))
	require.NoError(t, stateManager.Set(context.Background(), gameState))

	saved := make(chan *models.PlayerProfile, 4)
	repo := repomocks.NewRepository(t)
	repo.EXPECT().SavePlayerProfile(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, profile *models.PlayerProfile) error {
			saved <- profile
			return nil
		}).Maybe()

	worker := NewSaveWorker(NewSaveWorkerOptions{
		Repository:   repo,
		StateManager: stateManager,
		Interval:     10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	select {
	case profile := <-saved:
		assert.Equal(t, "erin", profile.Username)
		assert.Equal(t, gameState.WorldID.String(), profile.WorldID)
	case <-time.After(2 * time.Second):
		t.Fatal("players were not saved")
	}
}
