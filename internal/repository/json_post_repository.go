package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"styleGallery/internal/models"
)

const postsFileMode fs.FileMode = 0o644

// JSONPostRepository stores all posts as one JSON array in a single file.
// Every operation holds mu for its whole read-modify-write cycle and every
// write replaces the file through a rename, so readers never observe a
// partially written document.
type JSONPostRepository struct {
	mu   sync.Mutex
	path string
}

func NewJSONPostRepository(path string) *JSONPostRepository {
	return &JSONPostRepository{path: path}
}

func (r *JSONPostRepository) Path() string {
	return r.path
}

func (r *JSONPostRepository) Load(ctx context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

func (r *JSONPostRepository) Save(ctx context.Context, posts []models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.save(posts)
}

func (r *JSONPostRepository) Append(ctx context.Context, build BuildPost) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.load()
	if err != nil {
		return nil, err
	}

	post, err := build(len(posts))
	if err != nil {
		return nil, err
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	posts = append(posts, post)
	if err := r.save(posts); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *JSONPostRepository) Vote(ctx context.Context, index int, action models.VoteAction) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.load()
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(posts) {
		return nil, models.NewIndexOutOfRange(index, len(posts))
	}

	post := posts[index]
	if err := post.Apply(action); err != nil {
		return nil, err
	}
	posts[index] = post

	if err := r.save(posts); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *JSONPostRepository) IndexOf(ctx context.Context, postID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.load()
	if err != nil {
		return 0, err
	}

	for i, post := range posts {
		if post.ID != "" && post.ID == postID {
			return i, nil
		}
	}

	return 0, models.NewAppError(models.ErrCodeNotFound, fmt.Sprintf("post %s not found", postID), nil)
}

func (r *JSONPostRepository) load() ([]models.Post, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Post{}, nil
	}
	if err != nil {
		return nil, models.NewStorageError("failed to read posts file", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, models.NewDataCorruptionError(
			fmt.Sprintf("posts file %s is not a JSON array", r.path), nil)
	}

	var posts []models.Post
	if err := json.Unmarshal(trimmed, &posts); err != nil {
		return nil, models.NewDataCorruptionError(
			fmt.Sprintf("posts file %s does not parse", r.path), err)
	}

	for i, post := range posts {
		if post.Image == "" || post.Likes < 0 || post.Dislikes < 0 {
			return nil, models.NewDataCorruptionError(
				fmt.Sprintf("posts file %s: post %d is malformed", r.path, i), nil)
		}
	}

	return posts, nil
}

func (r *JSONPostRepository) save(posts []models.Post) error {
	if posts == nil {
		posts = []models.Post{}
	}

	data, err := json.Marshal(posts)
	if err != nil {
		return models.NewStorageError("failed to encode posts", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.NewStorageError("failed to create posts directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return models.NewStorageError("failed to create temp posts file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return models.NewStorageError("failed to write posts", err)
	}
	if err := tmp.Chmod(postsFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return models.NewStorageError("failed to set posts file mode", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return models.NewStorageError("failed to flush posts", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return models.NewStorageError("failed to close temp posts file", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return models.NewStorageError("failed to replace posts file", err)
	}

	return nil
}
