package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/orderstone/pkg/api/handlers"
	"github.com/cbodonnell/orderstone/pkg/api/middleware"
	authproviders "github.com/cbodonnell/orderstone/pkg/auth/providers"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/repositories"
	"github.com/cbodonnell/orderstone/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port int
	TLS  *TLSConfig
	// AuthProvider guards /players and /players/profiles. When nil they are public.
	AuthProvider authproviders.AuthProvider
	StateManager state.StateManager
	// Repository backs /chat and /blocks/changes; both answer 503 without it
	Repository repositories.Repository
	Mods       handlers.ModLister
	Worlds     handlers.WorldLister
}

// NewAPIServer creates a new http.Server for the status API
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the routes of the status API.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.CORS)

	players := http.Handler(handlers.HandleListPlayers(opts.StateManager))
	profiles := http.Handler(handlers.HandleListProfiles(opts.StateManager, opts.Repository))
	if opts.AuthProvider != nil {
		auth := middleware.NewAuthMiddleware(opts.AuthProvider)
		players = auth(players)
		profiles = auth(profiles)
	}

	router.HandleFunc("/status", handlers.HandleStatus(opts.StateManager)).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/players", players).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/players/profiles", profiles).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/chat", handlers.HandleListChat(opts.StateManager, opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/mods", handlers.HandleListMods(opts.Mods)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/worlds", handlers.HandleListWorlds(opts.Worlds)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/worlds/played", handlers.HandleListPlayedWorlds(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/blocks/changes", handlers.HandleListBlockChanges(opts.StateManager, opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	return router
}

// Start serves the API until Stop is called
func (s *APIServer) Start() error {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return nil
		}
		return fmt.Errorf("API server error: %v", err)
	}
	return nil
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
