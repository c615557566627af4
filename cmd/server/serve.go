package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/orderstone/pkg/api"
	authproviders "github.com/cbodonnell/orderstone/pkg/auth/providers"
	"github.com/cbodonnell/orderstone/pkg/config"
	"github.com/cbodonnell/orderstone/pkg/discovery"
	"github.com/cbodonnell/orderstone/pkg/game"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/cbodonnell/orderstone/pkg/network"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/cbodonnell/orderstone/pkg/repositories"
	"github.com/cbodonnell/orderstone/pkg/repositories/models"
	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/cbodonnell/orderstone/pkg/state"
	"github.com/cbodonnell/orderstone/pkg/version"
	"github.com/cbodonnell/orderstone/pkg/workers"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	clientMessageQueueSize   = 10000
	connectionEventQueueSize = 1000
	serverMessageChannelSize = 1024
	saveRequestChannelSize   = 16
	historyChannelSize       = 1024
	apiShutdownTimeout       = 5 * time.Second
)

func newStore(cfg config.Config) *saves.Store {
	return saves.NewStore(saves.NewStoreOptions{
		Dir:       cfg.Saves.Dir,
		Compress:  cfg.Saves.Compress,
		MaxWorlds: cfg.Saves.MaxWorlds,
	})
}

// openRepository returns nil when no database is configured.
func openRepository(ctx context.Context, connStr string) (repositories.Repository, error) {
	if connStr == "" {
		return nil, nil
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v", err)
	}
	switch u.Scheme {
	case "sqlite":
		return repositories.NewSQLiteRepository(ctx, strings.TrimPrefix(connStr, "sqlite://"))
	case "postgres", "postgresql":
		return repositories.NewPostgresRepository(ctx, connStr)
	default:
		return nil, fmt.Errorf("unknown database type %s", u.Scheme)
	}
}

// loadOrCreateWorld loads the named world, creating it on first use.
func loadOrCreateWorld(store *saves.Store, name string, seed int64) (*saves.WorldSave, error) {
	save, err := store.Load(name)
	if errors.Is(err, saves.ErrWorldNotFound) {
		log.Info("World %q not found, creating it", name)
		return store.Create(name, seed)
	}
	return save, err
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Info("Starting server version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg)
	save, err := loadOrCreateWorld(store, cfg.Game.World, cfg.Game.Seed)
	if err != nil {
		return fmt.Errorf("failed to load world: %v", err)
	}

	repository, err := openRepository(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open repository: %v", err)
	}
	if repository != nil {
		defer repository.Close(context.Background())
	} else {
		log.Warn("No database configured, chat and block history will not be kept")
	}

	gameState, err := game.LoadGameState(save, game.NewCollisionSpace())
	if err != nil {
		return fmt.Errorf("failed to load game state: %v", err)
	}

	var modManager *mods.Manager
	if cfg.Mods.Enabled {
		modManager = mods.NewManager(mods.NewManagerOptions{})
		defer modManager.Close()
	}

	clientManager := network.NewClientManager(network.NewClientManagerOptions{
		MaxPlayers: cfg.Network.MaxPlayers,
	})
	clientMessageQueue := queue.NewInMemoryQueue(clientMessageQueueSize)
	connectionEventQueue := queue.NewInMemoryQueue(connectionEventQueueSize)
	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		AuthProvider:  authproviders.NewNameProvider(),
		ClientManager: clientManager,
		MessageQueue:  clientMessageQueue,
		TCPPort:       cfg.Network.TCPPort,
		UDPPort:       cfg.Network.UDPPort,
		WSPort:        cfg.Network.WSPort,
	})

	stateManager := state.NewInMemoryStateManager()
	serverMessageChan := make(chan workers.ServerMessage, serverMessageChannelSize)
	saveRequestChan := make(chan workers.SaveRequest, saveRequestChannelSize)
	chatRecordChan := make(chan *models.ChatRecord, historyChannelSize)
	blockChangeChan := make(chan *models.BlockChange, historyChannelSize)

	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ClientEventChan:      clientManager.GetClientEventChan(),
		Repository:           repository,
		ConnectionEventQueue: connectionEventQueue,
		WorldID:              save.ID.String(),
	})
	serverMessageWorker := workers.NewServerMessageWorker(workers.NewServerMessageWorkerOptions{
		Sender:            networkManager,
		ServerMessageChan: serverMessageChan,
	})
	saveWorker := workers.NewSaveWorker(workers.NewSaveWorkerOptions{
		Store:           store,
		Repository:      repository,
		StateManager:    stateManager,
		SaveRequestChan: saveRequestChan,
		ChatRecordChan:  chatRecordChan,
		BlockChangeChan: blockChangeChan,
		Interval:        cfg.Game.AutosaveInterval,
	})

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		ClientMessageQueue:   clientMessageQueue,
		ConnectionEventQueue: connectionEventQueue,
		StateManager:         stateManager,
		ServerMessageChan:    serverMessageChan,
		SaveRequestChan:      saveRequestChan,
		ChatRecordChan:       chatRecordChan,
		BlockChangeChan:      blockChangeChan,
		Mods:                 modManager,
		GameState:            gameState,
		OwnerName:            cfg.Game.Owner,
		DefaultPermission:    cfg.DefaultPermission(),
		GameLoopInterval:     cfg.Game.TickInterval,
		AutosaveInterval:     cfg.Game.AutosaveInterval,
	})

	// mods load after the game manager attached itself as their host
	if modManager != nil {
		if err := modManager.LoadDir(cfg.Mods.Dir); err != nil {
			return fmt.Errorf("failed to load mods: %v", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return networkManager.Start(ctx)
	})
	g.Go(func() error {
		connectionEventWorker.Start(ctx)
		return nil
	})
	g.Go(func() error {
		serverMessageWorker.Start(ctx)
		return nil
	})
	g.Go(func() error {
		saveWorker.Start(ctx)
		return nil
	})
	g.Go(func() error {
		log.Info("Starting game manager")
		return gameManager.Start(ctx)
	})

	if cfg.Network.DiscoveryPort > 0 {
		responder := discovery.NewResponder(discovery.NewResponderOptions{
			Port: cfg.Network.DiscoveryPort,
			Info: serverInfo(cfg, clientManager, gameState.WorldName),
		})
		g.Go(func() error {
			return responder.Start(ctx)
		})
	}

	if cfg.API.Port > 0 {
		apiServer := newAPIServer(cfg, stateManager, repository, modManager, store)
		g.Go(apiServer.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
			defer cancel()
			return apiServer.Stop(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

func serverInfo(cfg config.Config, clientManager *network.ClientManager, worldName string) discovery.InfoFunc {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return func() discovery.ServerInfo {
		return discovery.ServerInfo{
			Name:       cfg.Network.Name,
			Host:       host,
			Port:       cfg.Network.TCPPort,
			Players:    clientManager.Count(),
			MaxPlayers: clientManager.MaxPlayers(),
			Version:    version.Get(),
			World:      worldName,
		}
	}
}

func newAPIServer(cfg config.Config, stateManager state.StateManager, repository repositories.Repository, modManager *mods.Manager, store *saves.Store) *api.APIServer {
	opts := api.NewAPIServerOptions{
		Port:         cfg.API.Port,
		StateManager: stateManager,
		Repository:   repository,
		Worlds:       store,
	}
	if modManager != nil {
		opts.Mods = modManager
	}
	if cfg.API.Token != "" {
		opts.AuthProvider = authproviders.NewStaticTokenProvider(cfg.API.Token, "")
	}
	if cfg.API.CertFile != "" {
		opts.TLS = &api.TLSConfig{
			CertFile: cfg.API.CertFile,
			KeyFile:  cfg.API.KeyFile,
		}
	}
	return api.NewAPIServer(opts)
}
