package source

import (
	"fmt"
	"net/http"

	"cashbook/internal/api"
	"cashbook/internal/config"
	"cashbook/internal/log"
	"cashbook/internal/snapshot"
	"cashbook/internal/timeutil"
)

// Factory creates readers based on configuration
type Factory interface {
	Create(cfg *config.Config) (*Result, error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new source factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentSource),
	}
}

// Create implements Factory.Create
func (f *DefaultFactory) Create(cfg *config.Config) (*Result, error) {
	sourceType := Type(cfg.DataSource)
	if !sourceType.IsValid() {
		return nil, fmt.Errorf("invalid data source: %s", cfg.DataSource)
	}

	switch sourceType {
	case APISource:
		return f.createAPISource(cfg)
	case SnapshotSource:
		return f.createSnapshotSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported data source: %s", sourceType)
	}
}

func (f *DefaultFactory) createAPISource(cfg *config.Config) (*Result, error) {
	zone, err := timeutil.LoadZone(cfg.DisplayTimezone)
	if err != nil {
		return nil, err
	}

	client, err := api.New(api.Config{
		BaseURL:   cfg.APIBaseURL,
		AuthToken: cfg.APIAuthToken,
		OrgID:     cfg.OrgID,
		UserID:    cfg.UserID,
		Timezone:  zone,
		HTTPClient: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: &log.Transport{Logger: f.logger.WithComponent(log.ComponentAPI)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}

	// The mirror keeps the snapshot database current so a later run
	// with DATA_SOURCE=snapshot has data to serve. A missing store is
	// not fatal for the live source.
	store, err := snapshot.NewStore(cfg.SnapshotDBPath)
	if err != nil {
		f.logger.Warn("Failed to open snapshot mirror, continuing without it", "error", err)
		f.logger.Info("Initialized API source", "base_url", cfg.APIBaseURL, "mirrored", false)
		return &Result{Reader: client}, nil
	}

	f.logger.Info("Initialized API source",
		"base_url", cfg.APIBaseURL,
		"mirrored", true,
		"db_path", cfg.SnapshotDBPath)

	return &Result{
		Reader:  NewMirror(client, store),
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createSnapshotSource(cfg *config.Config) (*Result, error) {
	store, err := snapshot.NewStore(cfg.SnapshotDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	f.logger.Info("Initialized snapshot source", "db_path", cfg.SnapshotDBPath)

	return &Result{
		Reader:  store,
		Cleanup: store.Close,
	}, nil
}

var (
	_ Reader = (*api.Client)(nil)
	_ Reader = (*snapshot.Store)(nil)
)
