package models

import "time"

// Post is a feed item. Likes and LikesCount are kept in step by the toggle
// operations; CommentsCount only tracks top-level comments.
type Post struct {
	ID            string    `json:"id" bson:"_id" gorm:"primaryKey;size:26"`
	AuthorID      string    `json:"author_id" bson:"author_id" gorm:"index;size:64"`
	Content       string    `json:"content" bson:"content" gorm:"size:500"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty"`
	IsPublic      bool      `json:"is_public" bson:"is_public" gorm:"index"`
	Likes         []string  `json:"likes" bson:"likes" gorm:"-"`
	LikesCount    int       `json:"likes_count" bson:"likes_count"`
	CommentsCount int       `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName pins the SQL table name.
func (Post) TableName() string { return "posts" }

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content  string `json:"content" validate:"required,max=500"`
	Image    string `json:"image,omitempty" validate:"omitempty,url"`
	IsPublic *bool  `json:"is_public,omitempty"`
}
