package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostApply(t *testing.T) {
	post := Post{Image: "posted_outfits/outfit_0.jpg", Likes: 1, Dislikes: 2}

	assert.NoError(t, post.Apply(ActionLike))
	assert.Equal(t, 2, post.Likes)
	assert.Equal(t, 2, post.Dislikes)

	assert.NoError(t, post.Apply(ActionDislike))
	assert.Equal(t, 2, post.Likes)
	assert.Equal(t, 3, post.Dislikes)

	err := post.Apply("Like")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, 2, post.Likes, "counters stay put on an invalid action")
	assert.Equal(t, 3, post.Dislikes)
}

func TestPostCounters(t *testing.T) {
	assert.Equal(t, "Likes: 0 | Dislikes: 0", Post{}.Counters())
	assert.Equal(t, "Likes: 12 | Dislikes: 3", Post{Likes: 12, Dislikes: 3}.Counters())
}

func TestOutfitFileName(t *testing.T) {
	assert.Equal(t, "outfit_0.jpg", OutfitFileName(0))
	assert.Equal(t, "outfit_17.jpg", OutfitFileName(17))
}

func TestInputImagePresent(t *testing.T) {
	var missing *InputImage
	assert.False(t, missing.Present())
	assert.False(t, (&InputImage{FileName: "a.jpg"}).Present())
	assert.True(t, (&InputImage{Data: []byte{0xff}}).Present())
}

func TestAppErrorMatching(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("vote: %w", NewRemoteServiceError("try-on failed", cause))

	assert.ErrorIs(t, err, ErrRemoteService)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrStorage)
	assert.EqualError(t, err, "vote: try-on failed: connection reset")

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeRemoteService, appErr.Code)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err        error
		validation bool
		storage    bool
	}{
		{err: NewValidationError("please upload an image of a person"), validation: true},
		{err: NewIndexOutOfRange(3, 1), validation: true},
		{err: NewInvalidAction("love"), validation: true},
		{err: NewStorageError("failed to write posts", nil), storage: true},
		{err: NewDataCorruptionError("not an array", nil), storage: true},
		{err: NewRemoteServiceError("try-on failed", nil)},
		{err: errors.New("plain")},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.storage, IsStorage(tt.err))
		})
	}
}

func TestNewIndexOutOfRangeMessage(t *testing.T) {
	assert.EqualError(t, NewIndexOutOfRange(5, 2), "post index 5 out of range [0, 2)")
}
