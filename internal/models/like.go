package models

import "time"

// Like is the SQL row backing the like set of a post or comment. The unique
// index makes "add if absent" a single conflict-ignoring insert.
type Like struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	EntityKind EntityKind `json:"entity_kind" gorm:"size:16;uniqueIndex:idx_entity_user_like"`
	EntityID   string     `json:"entity_id" gorm:"size:26;uniqueIndex:idx_entity_user_like"`
	UserID     string     `json:"user_id" gorm:"size:64;uniqueIndex:idx_entity_user_like"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName pins the SQL table name.
func (Like) TableName() string { return "likes" }

// LikeState is what a store hands back after mutating a like set.
// Clamped is set when the paired decrement had to be pinned at zero.
type LikeState struct {
	Likes      []string
	LikesCount int
	Clamped    bool
}

// ToggleState is the outcome of a like toggle.
type ToggleState string

const (
	LikeAdded   ToggleState = "added"
	LikeRemoved ToggleState = "removed"
)

// ToggleResult is the boundary shape returned for a toggle.
type ToggleResult struct {
	State      ToggleState `json:"state"`
	LikesCount int         `json:"likesCount"`
}
