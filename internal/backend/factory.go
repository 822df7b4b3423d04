package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/storage"
	"budget/internal/store/memory"
	"budget/internal/store/mongostore"
)

const mongoConnectTimeout = 10 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.MemoryDataFile == "" {
		f.logger.Info("Initialized memory backend", "persistent", false)
		return &BackendResult{Store: memory.New(), Type: MemoryBackend}, nil
	}

	s, err := memory.NewFromFile(config.MemoryDataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend", "persistent", true, "data_file", config.MemoryDataFile)

	return &BackendResult{Store: s, Type: MemoryBackend}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   sqliteRepo,
		Type:    SQLiteBackend,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongostore.Connect(connectCtx, config.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	repo := mongostore.NewRepository(mongostore.NewMongoProvider(client, config.MongoDatabase))

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)

	return &BackendResult{
		Store: repo,
		Type:  MongoBackend,
		Cleanup: func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		},
	}, nil
}
