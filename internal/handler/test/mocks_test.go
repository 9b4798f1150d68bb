package test

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"styleGallery/internal/models"
)

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostService) AddPost(ctx context.Context, imagePath string) (*models.Post, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) UpdatePost(ctx context.Context, index int, action models.VoteAction) (string, error) {
	args := m.Called(ctx, index, action)
	return args.String(0), args.Error(1)
}

func (m *MockPostService) PostOutfit(ctx context.Context, img image.Image) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

func (m *MockPostService) RecordVote(ctx context.Context, index int, action models.VoteAction) (string, error) {
	args := m.Called(ctx, index, action)
	return args.String(0), args.Error(1)
}

func (m *MockPostService) RecordVoteByID(ctx context.Context, postID string, action models.VoteAction) (int, string, error) {
	args := m.Called(ctx, postID, action)
	return args.Int(0), args.String(1), args.Error(2)
}

type MockTryOnService struct {
	mock.Mock
}

func (m *MockTryOnService) TryOn(ctx context.Context, req models.TryOnRequest) (image.Image, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}
