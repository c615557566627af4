package mods

// Plugin is a mod compiled into the server binary.
type Plugin interface {
	Manifest() Manifest
	Register(api *API) error
}

// Enabler is implemented by plugins that need a hook after registration.
type Enabler interface {
	OnEnable(api *API) error
}

// Readier is implemented by plugins that run once every mod is loaded.
type Readier interface {
	OnReady(api *API) error
}

// Closer releases plugin resources on shutdown.
type Closer interface {
	Close() error
}
