package models

// FeedPage is one slice of the public feed.
type FeedPage struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}
