package service

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"styleGallery/internal/models"
	"styleGallery/internal/repository"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Load(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) Save(ctx context.Context, posts []models.Post) error {
	args := m.Called(ctx, posts)
	return args.Error(0)
}

func (m *MockPostRepository) Append(ctx context.Context, build repository.BuildPost) (*models.Post, error) {
	args := m.Called(ctx, build)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Vote(ctx context.Context, index int, action models.VoteAction) (*models.Post, error) {
	args := m.Called(ctx, index, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) IndexOf(ctx context.Context, postID string) (int, error) {
	args := m.Called(ctx, postID)
	return args.Int(0), args.Error(1)
}

type MockTryOnClient struct {
	mock.Mock
}

func (m *MockTryOnClient) TryOn(ctx context.Context, req models.TryOnRequest) (image.Image, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}
