package gateway

import (
	"context"
	"errors"
	"log"

	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a write targets a message id the store does
// not hold.
var ErrNotFound = errors.New("message not found")

// GormStore is the postgres-backed MessageStore. Every committed write is
// published to the change feed; publish failures are logged, not surfaced,
// since snapshot reconciliation repairs missed events.
type GormStore struct {
	db   *gorm.DB
	feed feed.Feed
}

// NewGormStore binds a store to a database handle and a change feed.
func NewGormStore(db *gorm.DB, f feed.Feed) *GormStore {
	return &GormStore{db: db, feed: f}
}

// Insert persists a new message and announces it on the feed.
func (s *GormStore) Insert(ctx context.Context, draft Draft) (models.Message, error) {
	msg := models.Message{
		Text:        draft.Text,
		AuthorID:    draft.AuthorID,
		AuthorName:  draft.AuthorName,
		AuthorEmail: draft.AuthorEmail,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.Message{}, err
	}
	s.publish(ctx, feed.Event{Kind: feed.KindInsert, Record: msg})
	return msg, nil
}

// UpdateText replaces a message's text and announces the updated row.
func (s *GormStore) UpdateText(ctx context.Context, id uint, text string) (models.Message, error) {
	msg, err := s.find(ctx, id)
	if err != nil {
		return models.Message{}, err
	}
	if err := s.db.WithContext(ctx).Model(&msg).Update("text", text).Error; err != nil {
		return models.Message{}, err
	}
	s.publish(ctx, feed.Event{Kind: feed.KindUpdate, Record: msg})
	return msg, nil
}

// MarkDeleted flips the soft-delete flag and announces the updated row. The
// flag is monotone: a row already deleted stays deleted.
func (s *GormStore) MarkDeleted(ctx context.Context, id uint) (models.Message, error) {
	msg, err := s.find(ctx, id)
	if err != nil {
		return models.Message{}, err
	}
	if !msg.Deleted {
		if err := s.db.WithContext(ctx).Model(&msg).Update("deleted", true).Error; err != nil {
			return models.Message{}, err
		}
	}
	s.publish(ctx, feed.Event{Kind: feed.KindUpdate, Record: msg})
	return msg, nil
}

// Select fetches messages ordered by creation time ascending, optionally
// excluding soft-deleted rows.
func (s *GormStore) Select(ctx context.Context, filter Filter) ([]models.Message, error) {
	query := s.db.WithContext(ctx).Model(&models.Message{}).Order("created_at asc, id asc")
	if filter == FilterNotDeleted {
		query = query.Where("deleted = ?", false)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GormStore) find(ctx context.Context, id uint) (models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, err
	}
	return msg, nil
}

func (s *GormStore) publish(ctx context.Context, ev feed.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, ev); err != nil {
		log.Printf("gateway: failed to publish %s event for message %d: %v", ev.Kind, ev.Record.ID, err)
	}
}
