package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"styleGallery/internal/config"
	"styleGallery/internal/database"
	"styleGallery/internal/repository"
	"styleGallery/internal/service"
	"styleGallery/internal/storage"
	"styleGallery/internal/tryon"
)

// App wires the configured post store, image storage and try-on client.
// db is nil unless posts are kept in PostgreSQL.
func App(ctx context.Context, cfg *config.Config, log *zap.Logger) (*database.DB, *repository.Repository, *service.Service, error) {
	var (
		db       *database.DB
		postRepo repository.PostRepository
	)

	switch cfg.Store.Backend {
	case config.StorePostgres:
		var err error
		db, err = database.ConnectDB(cfg, log)
		if err != nil {
			return nil, nil, nil, err
		}
		postRepo = repository.NewPostRepository(db.DB)
	default:
		postRepo = repository.NewJSONPostRepository(cfg.Store.PostsFile)
		log.Info("using JSON post store", zap.String("file", cfg.Store.PostsFile))
	}

	images, err := newStorage(ctx, cfg, log)
	if err != nil {
		if db != nil {
			db.CloseDB()
		}
		return nil, nil, nil, err
	}

	// no client-level timeout, each call is bounded by its context
	client := tryon.NewGradioClient(cfg.TryOn, &http.Client{}, log)

	// enabling dependencies
	repo := repository.NewRepository(postRepo)
	services := service.NewService(repo, cfg, images, client, log)

	return db, repo, services, nil
}

func newStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	if cfg.Store.Storage == config.StorageMinIO {
		minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		log.Info("storing outfits in MinIO",
			zap.String("endpoint", cfg.MinIO.Endpoint),
			zap.String("bucket", cfg.MinIO.BucketName))
		return minioClient, nil
	}

	local, err := storage.NewLocalStorage(cfg.Store.PostsFolder)
	if err != nil {
		return nil, err
	}
	log.Info("storing outfits locally", zap.String("folder", local.Dir()))
	return local, nil
}
