package service

import (
	"go.uber.org/zap"

	"styleGallery/internal/config"
	"styleGallery/internal/repository"
	"styleGallery/internal/storage"
	"styleGallery/internal/tryon"
)

type Service struct {
	Post  PostService
	TryOn TryOnService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, client tryon.Client, log *zap.Logger) *Service {
	return &Service{
		Post:  NewPostService(rep.Post, storage, log),
		TryOn: NewTryOnService(client, cfg.TryOn.Timeout, log),
	}
}
