package models

import (
	"fmt"
)

type VoteAction string

const (
	ActionLike    VoteAction = "like"
	ActionDislike VoteAction = "dislike"
)

func (a VoteAction) Valid() bool {
	return a == ActionLike || a == ActionDislike
}

// Post is one published try-on result. Its position in the stored list
// is what the gallery and the index based API address it by.
type Post struct {
	Image    string `json:"image" db:"image"`
	Likes    int    `json:"likes" db:"likes"`
	Dislikes int    `json:"dislikes" db:"dislikes"`
	ID       string `json:"id,omitempty" db:"post_id"`
}

// Counters formats the vote counters the way the gallery displays them.
func (p Post) Counters() string {
	return fmt.Sprintf("Likes: %d | Dislikes: %d", p.Likes, p.Dislikes)
}

// Apply increments the counter named by action.
func (p *Post) Apply(action VoteAction) error {
	switch action {
	case ActionLike:
		p.Likes++
	case ActionDislike:
		p.Dislikes++
	default:
		return NewInvalidAction(string(action))
	}
	return nil
}

type InputImage struct {
	FileName string
	Data     []byte
}

func (i *InputImage) Present() bool {
	return i != nil && len(i.Data) > 0
}

// TryOnRequest lives for the duration of one remote call only.
type TryOnRequest struct {
	Person      *InputImage
	Garment     *InputImage
	Description string
	AutoMask    bool
	AutoCrop    bool
}

// OutfitFileName is the managed file name of the post created at ordinal n.
func OutfitFileName(n int) string {
	return fmt.Sprintf("outfit_%d.jpg", n)
}
