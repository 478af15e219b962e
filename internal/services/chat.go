package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/metrics"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ChatKeySeparator joins sorted participant ids into a chat key. Ids may not
// contain it, which keeps the key one-to-one with the participant set.
const ChatKeySeparator = ":"

// MaxChatKeyLength is the longest key the chat stores can index.
const MaxChatKeyLength = 512

// MembershipPredicate decides whether userID may act on chat.
type MembershipPredicate func(chat *models.ChatMetadata, userID string) bool

// IsParticipant is the default MembershipPredicate.
func IsParticipant(chat *models.ChatMetadata, userID string) bool {
	return chat.HasMember(userID)
}

// ChatService guarantees at most one chat per participant set.
type ChatService struct {
	chats      repositories.ChatRepository
	membership MembershipPredicate
	log        logrus.FieldLogger
	opts       Options
}

func NewChatService(chats repositories.ChatRepository, log logrus.FieldLogger, opts Options) *ChatService {
	return &ChatService{
		chats:      chats,
		membership: IsParticipant,
		log:        log,
		opts:       opts.normalized(),
	}
}

// WithMembership replaces the membership check used by Get and Delete.
func (s *ChatService) WithMembership(p MembershipPredicate) *ChatService {
	if p != nil {
		s.membership = p
	}
	return s
}

// CanonicalParticipants merges the requester into others, drops duplicates
// and sorts the result. It returns the participants and their chat key.
func CanonicalParticipants(requesterID string, others []string) ([]string, string, error) {
	all := append([]string{requesterID}, others...)
	if lo.Contains(all, "") {
		return nil, "", models.NewValidationError("participant ids must not be empty")
	}
	if lo.SomeBy(all, func(id string) bool { return strings.Contains(id, ChatKeySeparator) }) {
		return nil, "", models.NewValidationError("participant ids must not contain " + ChatKeySeparator)
	}
	users := lo.Uniq(all)
	if len(users) < 2 {
		return nil, "", models.NewValidationError("a chat needs at least two distinct participants")
	}
	sort.Strings(users)
	key := strings.Join(users, ChatKeySeparator)
	if len(key) > MaxChatKeyLength {
		return nil, "", models.NewValidationError("too many participants for one chat")
	}
	return users, key, nil
}

// GetOrCreate returns the chat between requesterID and others, creating it
// if none exists. Concurrent calls for the same set converge on one record.
func (s *ChatService) GetOrCreate(ctx context.Context, requesterID string, others []string) (*models.ChatMetadata, error) {
	users, key, err := CanonicalParticipants(requesterID, others)
	if err != nil {
		return nil, err
	}

	chat, err := s.lookup(ctx, key, users)
	if err == nil {
		return chat, nil
	}
	if !models.IsKind(err, models.KindNotFound) {
		return nil, err
	}

	chat = &models.ChatMetadata{Key: key, Users: users, CreatedAt: time.Now().UTC()}
	err = storeExec(ctx, s.opts.StoreTimeout, "chats.create", func(ctx context.Context) error {
		return s.chats.CreateChat(ctx, chat)
	})
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		return nil, translate(err, "chat", key)
	}

	// Lost the race to a concurrent create: read the winner once.
	winner, lookupErr := s.lookup(ctx, key, users)
	metrics.RecordChatConflict(lookupErr == nil)
	if lookupErr != nil {
		s.log.WithFields(logrus.Fields{"key": key}).WithError(lookupErr).Warn("chat create conflict not resolved by lookup")
		return nil, models.NewConflictError("chat was created concurrently, try again", lookupErr)
	}
	return winner, nil
}

// Get returns a chat the requester belongs to.
func (s *ChatService) Get(ctx context.Context, key, requesterID string) (*models.ChatMetadata, error) {
	if err := requireID("chat key", key); err != nil {
		return nil, err
	}
	chat, err := storeCall(ctx, s.opts.StoreTimeout, "chats.get", func(ctx context.Context) (*models.ChatMetadata, error) {
		return s.chats.GetChatByKey(ctx, key)
	})
	if err != nil {
		return nil, translate(err, "chat", key)
	}
	if !s.membership(chat, requesterID) {
		return nil, models.NewUnauthorizedError("not a participant of this chat")
	}
	return chat, nil
}

// Delete removes a chat the requester belongs to.
func (s *ChatService) Delete(ctx context.Context, key, requesterID string) error {
	if _, err := s.Get(ctx, key, requesterID); err != nil {
		return err
	}
	err := storeExec(ctx, s.opts.StoreTimeout, "chats.delete", func(ctx context.Context) error {
		return s.chats.DeleteChat(ctx, key)
	})
	return translate(err, "chat", key)
}

// lookup reads the chat under key and checks that it holds exactly users.
func (s *ChatService) lookup(ctx context.Context, key string, users []string) (*models.ChatMetadata, error) {
	chat, err := storeCall(ctx, s.opts.StoreTimeout, "chats.get", func(ctx context.Context) (*models.ChatMetadata, error) {
		return s.chats.GetChatByKey(ctx, key)
	})
	if err != nil {
		return nil, translate(err, "chat", key)
	}
	if !sameSet(chat.Users, users) {
		s.log.WithFields(logrus.Fields{"key": key, "users": chat.Users}).Error("chat key does not match stored participants")
		return nil, models.NewConflictError("chat key is held by a different participant set", nil)
	}
	return chat, nil
}

// sameSet compares a stored participant list against sorted, distinct want.
func sameSet(stored, want []string) bool {
	return len(stored) == len(want) && lo.Every(want, stored)
}
