package service

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"styleGallery/internal/models"
	"styleGallery/internal/repository"
	"styleGallery/internal/storage"
)

const (
	MsgOutfitPosted  = "Outfit posted successfully!"
	MsgNothingToPost = "No outfit to post."

	jpegQuality = 95
)

type PostService interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	AddPost(ctx context.Context, imagePath string) (*models.Post, error)
	UpdatePost(ctx context.Context, index int, action models.VoteAction) (string, error)
	PostOutfit(ctx context.Context, img image.Image) (string, error)
	RecordVote(ctx context.Context, index int, action models.VoteAction) (string, error)
	RecordVoteByID(ctx context.Context, postID string, action models.VoteAction) (int, string, error)
}

type postService struct {
	postRepo repository.PostRepository
	storage  storage.Storage
	log      *zap.Logger
}

func NewPostService(postRepo repository.PostRepository, storage storage.Storage, log *zap.Logger) PostService {
	return &postService{
		postRepo: postRepo,
		storage:  storage,
		log:      log,
	}
}

func (p *postService) ListPosts(ctx context.Context) ([]models.Post, error) {
	return p.postRepo.Load(ctx)
}

// AddPost copies the image at imagePath into managed storage as
// outfit_<n>.jpg, n being the number of posts already stored, and appends
// a post with zero counters.
func (p *postService) AddPost(ctx context.Context, imagePath string) (*models.Post, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, models.NewStorageError("failed to open image to post", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, models.NewStorageError("failed to stat image to post", err)
	}

	var saved string
	post, err := p.postRepo.Append(ctx, func(ordinal int) (models.Post, error) {
		location, err := p.storage.SaveImage(ctx, models.OutfitFileName(ordinal), file, info.Size())
		if err != nil {
			return models.Post{}, models.NewStorageError("failed to store image", err)
		}
		saved = location

		return models.Post{
			ID:       uuid.New().String(),
			Image:    location,
			Likes:    0,
			Dislikes: 0,
		}, nil
	})
	if err != nil {
		if saved != "" {
			if errDel := p.storage.DeleteImage(ctx, saved); errDel != nil {
				p.log.Warn("failed to remove image of unsaved post",
					zap.String("image", saved), zap.Error(errDel))
			}
		}
		return nil, err
	}

	p.log.Info("post added", zap.String("post_id", post.ID), zap.String("image", post.Image))
	return post, nil
}

// UpdatePost increments the counter named by action on the post at index
// and returns the formatted counters.
func (p *postService) UpdatePost(ctx context.Context, index int, action models.VoteAction) (string, error) {
	post, err := p.postRepo.Vote(ctx, index, action)
	if err != nil {
		return "", err
	}

	p.log.Debug("vote recorded",
		zap.Int("index", index),
		zap.String("action", string(action)),
		zap.Int("likes", post.Likes),
		zap.Int("dislikes", post.Dislikes))

	return post.Counters(), nil
}

func (p *postService) PostOutfit(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return MsgNothingToPost, nil
	}

	tmp, err := os.CreateTemp("", "temp_outfit_*.jpg")
	if err != nil {
		return "", models.NewStorageError("failed to create temp outfit file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		tmp.Close()
		return "", models.NewStorageError("failed to encode outfit", err)
	}
	if err := tmp.Close(); err != nil {
		return "", models.NewStorageError("failed to write temp outfit file", err)
	}

	if _, err := p.AddPost(ctx, tmpPath); err != nil {
		return "", err
	}

	return MsgOutfitPosted, nil
}

func (p *postService) RecordVote(ctx context.Context, index int, action models.VoteAction) (string, error) {
	return p.UpdatePost(ctx, index, action)
}

// RecordVoteByID resolves the post's current position from its stable id
// and votes on it.
func (p *postService) RecordVoteByID(ctx context.Context, postID string, action models.VoteAction) (int, string, error) {
	if !action.Valid() {
		return 0, "", models.NewInvalidAction(string(action))
	}

	index, err := p.postRepo.IndexOf(ctx, postID)
	if err != nil {
		return 0, "", err
	}

	counters, err := p.UpdatePost(ctx, index, action)
	if err != nil {
		return 0, "", fmt.Errorf("vote on post %s: %w", postID, err)
	}

	return index, counters, nil
}
