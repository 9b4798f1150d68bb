package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"styleGallery/internal/models"
)

// PostRepositoryImpl keeps posts in PostgreSQL. The position column
// reproduces the order of the JSON list, so index based addressing works
// the same for both stores.
type PostRepositoryImpl struct {
	DB *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{DB: db}
}

const selectPosts = `SELECT post_id, image, likes, dislikes FROM posts ORDER BY position`

func (r *PostRepositoryImpl) Load(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.DB.SelectContext(ctx, &posts, selectPosts); err != nil {
		return nil, models.NewStorageError("failed to load posts", err)
	}

	return posts, nil
}

func (r *PostRepositoryImpl) Save(ctx context.Context, posts []models.Post) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
			return fmt.Errorf("failed to clear posts: %w", err)
		}

		for i := range posts {
			if posts[i].ID == "" {
				posts[i].ID = uuid.New().String()
			}
			if err := insertPost(ctx, tx, i, posts[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *PostRepositoryImpl) Append(ctx context.Context, build BuildPost) (*models.Post, error) {
	var created models.Post

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE posts IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock posts: %w", err)
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts`); err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}

		post, err := build(count)
		if err != nil {
			return err
		}
		if post.ID == "" {
			post.ID = uuid.New().String()
		}

		if err := insertPost(ctx, tx, count, post); err != nil {
			return err
		}

		created = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *PostRepositoryImpl) Vote(ctx context.Context, index int, action models.VoteAction) (*models.Post, error) {
	if !action.Valid() {
		return nil, models.NewInvalidAction(string(action))
	}

	var voted models.Post

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var post models.Post
		err := tx.GetContext(ctx, &post, `
			SELECT post_id, image, likes, dislikes FROM posts
			WHERE position = $1
			FOR UPDATE
		`, index)
		if errors.Is(err, sql.ErrNoRows) {
			var count int
			if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts`); err != nil {
				return fmt.Errorf("failed to count posts: %w", err)
			}
			return models.NewIndexOutOfRange(index, count)
		}
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}

		if err := post.Apply(action); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE posts SET likes = $1, dislikes = $2
			WHERE post_id = $3
		`, post.Likes, post.Dislikes, post.ID)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check updated rows: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("post at position %d was not updated", index)
		}

		voted = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &voted, nil
}

func (r *PostRepositoryImpl) IndexOf(ctx context.Context, postID string) (int, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return 0, models.NewAppError(models.ErrCodeNotFound, fmt.Sprintf("post %s not found", postID), nil)
	}

	var position int
	err := r.DB.GetContext(ctx, &position, `SELECT position FROM posts WHERE post_id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.NewAppError(models.ErrCodeNotFound, fmt.Sprintf("post %s not found", postID), nil)
	}
	if err != nil {
		return 0, models.NewStorageError("failed to find post", err)
	}

	return position, nil
}

func insertPost(ctx context.Context, tx *sqlx.Tx, position int, post models.Post) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO posts (post_id, position, image, likes, dislikes)
		VALUES ($1, $2, $3, $4, $5)
	`, post.ID, position, post.Image, post.Likes, post.Dislikes)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// inTx runs fn in a transaction. Errors that are already AppErrors pass
// through untouched, everything else becomes a storage error.
func (r *PostRepositoryImpl) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.NewStorageError("failed to begin transaction", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewStorageError("posts transaction failed", err)
	}

	if err := tx.Commit(); err != nil {
		return models.NewStorageError("failed to commit transaction", err)
	}

	return nil
}
