package easel

import (
	"fmt"
	"log/slog"

	"github.com/easelab/easel/pkg/adapters/file"
	"github.com/easelab/easel/pkg/adapters/httpgw"
	"github.com/easelab/easel/pkg/engine"
	"github.com/easelab/easel/pkg/notify"
	"github.com/easelab/easel/pkg/ports"
)

// config collects the wiring choices before the Manager is built.
type config struct {
	gateway     ports.GraphGateway
	store       ports.BackupStore
	noBackup    bool
	logger      *slog.Logger
	notifier    *notify.Notifier
	layout      ports.Layout
	parallelism int
	httpOpts    []httpgw.Option
}

// Option defines a functional option for configuring the Manager.
type Option func(*config)

// WithGateway injects a custom graph gateway, bypassing the default
// HTTP client. baseURL may then be empty.
func WithGateway(gw ports.GraphGateway) Option {
	return func(c *config) {
		c.gateway = gw
	}
}

// WithBackupStore replaces the default file-based fallback store.
func WithBackupStore(store ports.BackupStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithoutBackup disables the fallback cache entirely.
func WithoutBackup() Option {
	return func(c *config) {
		c.noBackup = true
	}
}

// WithLogger sets a structured logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.logger = log
	}
}

// WithNotifier attaches an externally built event bus.
func WithNotifier(n *notify.Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// WithLayout replaces the default layered layout pass applied to
// placeless nodes on load.
func WithLayout(l ports.Layout) Option {
	return func(c *config) {
		c.layout = l
	}
}

// WithParallelism bounds concurrent remote calls within a sync phase.
func WithParallelism(n int) Option {
	return func(c *config) {
		c.parallelism = n
	}
}

// WithHTTPOptions forwards options to the default HTTP gateway.
// Ignored when a custom gateway is injected.
func WithHTTPOptions(opts ...httpgw.Option) Option {
	return func(c *config) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// New initializes a graph Manager bound to the remote service at
// baseURL. By default it speaks the service's HTTP protocol and
// mirrors every successful save into a file backup store under
// .easel/backups. Use WithGateway to swap the transport and
// WithBackupStore or WithoutBackup to change the cache.
func New(baseURL string, opts ...Option) (*engine.Manager, error) {
	cfg := &config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.gateway == nil {
		if baseURL == "" {
			return nil, fmt.Errorf("baseURL is required when no custom gateway is provided")
		}
		cfg.gateway = httpgw.New(baseURL, cfg.httpOpts...)
	}

	if cfg.store == nil && !cfg.noBackup {
		cfg.store = file.New("")
	}

	var engineOpts []engine.Option
	if cfg.store != nil {
		engineOpts = append(engineOpts, engine.WithFallbackStore(cfg.store))
	}
	if cfg.logger != nil {
		engineOpts = append(engineOpts, engine.WithLogger(cfg.logger))
	}
	if cfg.notifier != nil {
		engineOpts = append(engineOpts, engine.WithNotifier(cfg.notifier))
	}
	if cfg.layout != nil {
		engineOpts = append(engineOpts, engine.WithLayout(cfg.layout))
	}
	if cfg.parallelism > 0 {
		engineOpts = append(engineOpts, engine.WithParallelism(cfg.parallelism))
	}

	return engine.NewManager(cfg.gateway, engineOpts...), nil
}
