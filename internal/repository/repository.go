package repository

import (
	"context"
	"styleGallery/internal/models"
)

// BuildPost creates the post appended at the given ordinal, i.e. the number
// of posts stored before it.
type BuildPost func(ordinal int) (models.Post, error)

// PostRepository keeps the ordered list of posts. Append and Vote are
// atomic read-modify-write operations: concurrent callers never lose an
// update.
type PostRepository interface {
	Load(ctx context.Context) ([]models.Post, error)
	Save(ctx context.Context, posts []models.Post) error
	Append(ctx context.Context, build BuildPost) (*models.Post, error)
	Vote(ctx context.Context, index int, action models.VoteAction) (*models.Post, error)
	IndexOf(ctx context.Context, postID string) (int, error)
}

type Repository struct {
	Post PostRepository
}

func NewRepository(post PostRepository) *Repository {
	return &Repository{
		Post: post,
	}
}
