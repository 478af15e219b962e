package models

import "time"

// Comment is a node in a post's comment tree. The tree is stored as a
// materialized path: Ancestors holds every comment id from the root down to
// the immediate parent, so depth and grouping never need a recursive read.
type Comment struct {
	ID            string    `json:"id" bson:"_id" gorm:"primaryKey;size:26"`
	PostID        string    `json:"post_id" bson:"post_id" gorm:"index;size:26"`
	AuthorID      string    `json:"author_id" bson:"author_id" gorm:"index;size:64"`
	Content       string    `json:"content" bson:"content" gorm:"size:500"`
	ParentComment *string   `json:"parent_comment" bson:"parent_comment" gorm:"index;size:26"`
	Ancestors     []string  `json:"ancestors" bson:"ancestors" gorm:"serializer:json"`
	Likes         []string  `json:"likes" bson:"likes" gorm:"-"`
	LikesCount    int       `json:"likes_count" bson:"likes_count"`
	ReplyCount    int       `json:"reply_count" bson:"reply_count"`
	Deleted       bool      `json:"deleted" bson:"deleted"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName pins the SQL table name.
func (Comment) TableName() string { return "comments" }

// IsTopLevel reports whether the comment hangs directly off its post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentComment == nil
}

// Depth is 0 for top-level comments.
func (c *Comment) Depth() int {
	return len(c.Ancestors)
}

// CreateCommentRequest defines the request body for creating a comment or a reply
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

// CommentOrder selects how comment listings are sorted.
type CommentOrder string

const (
	NewestFirst CommentOrder = "newest"
	OldestFirst CommentOrder = "oldest"
)

// ParseCommentOrder maps a query value to a CommentOrder, defaulting to newest first.
func ParseCommentOrder(raw string) (CommentOrder, error) {
	switch CommentOrder(raw) {
	case "", NewestFirst:
		return NewestFirst, nil
	case OldestFirst:
		return OldestFirst, nil
	}
	return "", NewValidationError("order must be one of newest, oldest")
}
