package services

import (
	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/store"
)

// App bundles the full client-side stack of one device: the identity
// store, the API client and the services wired over them. Frontends hold
// one App per customer session and start Sync.Run in the background.
type App struct {
	Store    store.Store
	API      *client.Client
	Tables   *TableResolver
	Guard    *OrderSessionGuard
	Cart     *CartProjector
	Orders   *OrderService
	Sync     *StatusSynchronizer
	Invoices *InvoiceService
}

// NewApp wires the client stack from the loaded configuration: the store
// backend named by TERRA_STORE_BACKEND, the API client pointed at
// TERRA_BACKEND_URL and the synchronizer's push URL and poll interval.
func NewApp(cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.StoreBackend, cfg.StorePath, cfg.RedisAddr, cfg.RedisNamespace)
	if err != nil {
		return nil, err
	}
	return NewAppWithStore(cfg, st), nil
}

// NewAppWithStore wires the client stack over an existing store, for
// callers that manage the store themselves
func NewAppWithStore(cfg *config.Config, st store.Store) *App {
	api := client.New(cfg.BackendURL)
	return &App{
		Store:    st,
		API:      api,
		Tables:   NewTableResolver(api, st),
		Guard:    NewOrderSessionGuard(api, st),
		Cart:     NewCartProjector(st),
		Orders:   NewOrderService(api, st),
		Sync:     NewStatusSynchronizer(api, st, cfg.WSURL, cfg.PollInterval),
		Invoices: NewInvoiceService(GetS3Service()),
	}
}
