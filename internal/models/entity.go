package models

// EntityKind names a likeable/countable record type.
type EntityKind string

const (
	KindPost    EntityKind = "post"
	KindComment EntityKind = "comment"
)

// ParseEntityKind validates a kind coming from outside.
func ParseEntityKind(raw string) (EntityKind, error) {
	switch EntityKind(raw) {
	case KindPost:
		return KindPost, nil
	case KindComment:
		return KindComment, nil
	}
	return "", NewValidationError("unknown entity kind " + raw)
}

// CounterField is a denormalized integer column/field.
type CounterField string

const (
	FieldLikesCount    CounterField = "likes_count"
	FieldCommentsCount CounterField = "comments_count"
	FieldReplyCount    CounterField = "reply_count"
)

// CounterTarget addresses one counter on one record.
type CounterTarget struct {
	Kind  EntityKind
	ID    string
	Field CounterField
}

// Valid reports whether the field exists on the kind.
func (t CounterTarget) Valid() bool {
	switch t.Kind {
	case KindPost:
		return t.Field == FieldLikesCount || t.Field == FieldCommentsCount
	case KindComment:
		return t.Field == FieldLikesCount || t.Field == FieldReplyCount
	}
	return false
}

// CounterResult is the value a counter holds after a delta. Clamped is set
// when a decrement would have gone below zero and the store pinned it at 0.
type CounterResult struct {
	Value   int
	Clamped bool
}
