package models

import "time"

// ChatMetadata identifies a conversation by its participant set. Key is the
// canonical encoding of Users and is unique in the store.
type ChatMetadata struct {
	Key       string    `json:"key" bson:"_id" gorm:"column:chat_key;primaryKey;size:512"`
	Users     []string  `json:"users" bson:"users" gorm:"serializer:json"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TableName pins the SQL table name.
func (ChatMetadata) TableName() string { return "chat_metadata" }

// HasMember reports whether userID participates in the chat.
func (c *ChatMetadata) HasMember(userID string) bool {
	for _, u := range c.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// CreateChatRequest defines the request body for opening a chat
type CreateChatRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
}
