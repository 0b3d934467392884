package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/virinco/vicpack-relay/internal/config"
	"github.com/virinco/vicpack-relay/internal/logger"
	"github.com/virinco/vicpack-relay/internal/relay"
	"github.com/virinco/vicpack-relay/internal/storage"
	"github.com/virinco/vicpack-relay/pkg/listeners"
	"github.com/virinco/vicpack-relay/pkg/publishers"
)

// Relay represents the relay runtime. It owns the ingestion listeners, the
// distribution fanout, the relay service between them, and the dedup store
// lifecycle.
type Relay struct {
	cfg       *config.Config
	listeners []listeners.Listener
	fanout    *publishers.Fanout
	service   *relay.Service
	log       logger.Logger
	store     storage.Store
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	listenerReg, err := listeners.LoadRegistry(cfg.ListenersFile)
	if err != nil {
		return nil, fmt.Errorf("load listeners registry: %w", err)
	}
	enabledListeners := listenerReg.Enabled()
	if len(enabledListeners) == 0 {
		return nil, fmt.Errorf("no listeners enabled")
	}
	listenerIDs := make([]string, 0, len(enabledListeners))
	for _, l := range enabledListeners {
		listenerIDs = append(listenerIDs, l.ID)
	}
	log.InfoObj("listeners registry loaded", "listeners_meta", map[string]any{
		"count": len(listenerIDs),
		"ids":   listenerIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers enabled")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	listenerClients, err := listeners.BuildAll(listeners.DefaultRegistry(), enabledListeners, log)
	if err != nil {
		return nil, fmt.Errorf("build listeners: %w", err)
	}

	storeOpts := storage.Options{
		PacketTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"packet_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	service := relay.NewService(fanout, store, log)

	return &Relay{
		cfg:       cfg,
		listeners: listenerClients,
		fanout:    fanout,
		service:   service,
		log:       log,
		store:     store,
	}, nil
}

// Run subscribes every listener and blocks until the context is cancelled
// or a listener fails to start. Each listener runs in its own goroutine;
// uplinks from all of them funnel through the same relay service.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.closeStore()
	defer r.closeListeners()

	r.log.InfoObj("relay starting", "relay_state", map[string]any{
		"listeners_count":  len(r.listeners),
		"publishers_count": r.fanout.Size(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(r.listeners))

	for _, l := range r.listeners {
		wg.Add(1)
		go func(l listeners.Listener) {
			defer wg.Done()
			if err := l.Listen(ctx, r.service.HandleUplink); err != nil {
				r.log.ErrorObj("listener exited", "listener_error", map[string]any{
					"listener_id": l.ID(),
					"type":        l.Type(),
					"error":       err.Error(),
				})
				errCh <- fmt.Errorf("listener %s: %w", l.ID(), err)
				cancel()
			}
		}(l)
	}

	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return err
	}

	r.log.InfoObj("relay stopped", "reason", ctx.Err())
	return nil
}

func (r *Relay) closeListeners() {
	for _, l := range r.listeners {
		if err := l.Close(); err != nil {
			r.log.ErrorObj("listener close failed", "listener_error", map[string]any{
				"listener_id": l.ID(),
				"error":       err.Error(),
			})
		}
	}
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (r *Relay) closeStore() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
}
