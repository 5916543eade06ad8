package conversations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zatgpt/zatgpt-backend/pkg/db/models"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
)

// ErrSessionNotFound covers both missing sessions and sessions owned by
// someone else.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists chat sessions.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository binds a session repository to db.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session for owner.
func (r *SessionRepository) Create(ctx context.Context, ownerID int64, at time.Time) (*models.ChatSession, error) {
	session := &models.ChatSession{
		ID:        uuid.New(),
		UserID:    ownerID,
		CreatedAt: at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindOwned loads a session only when it belongs to ownerID.
func (r *SessionRepository) FindOwned(ctx context.Context, id uuid.UUID, ownerID int64) (*models.ChatSession, error) {
	return r.findOwned(r.db.WithContext(ctx), id, ownerID)
}

// LockOwned is FindOwned with a row lock held until the surrounding
// transaction ends. Concurrent sends to one session serialize on it.
func (r *SessionRepository) LockOwned(ctx context.Context, id uuid.UUID, ownerID int64) (*models.ChatSession, error) {
	return r.findOwned(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id, ownerID)
}

func (r *SessionRepository) findOwned(q *gorm.DB, id uuid.UUID, ownerID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	err := q.Where("id = ? AND user_id = ?", id, ownerID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByOwner returns the owner's sessions, newest first.
func (r *SessionRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.ChatSession, error) {
	var out []models.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MessageRepository is the append-only message log.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository binds a message repository to db.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append adds a message to the session log. created_at never goes backwards
// within a session even when the clock does; the id breaks ties.
func (r *MessageRepository) Append(ctx context.Context, sessionID uuid.UUID, role enums.MessageRole, content string, now time.Time) (*models.Message, error) {
	at := now.UTC().Truncate(time.Microsecond)

	last, err := r.last(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if last != nil && last.CreatedAt.After(at) {
		at = last.CreatedAt.UTC()
	}

	msg := &models.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: at,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepository) last(ctx context.Context, sessionID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&msg).Error
	if err != nil {
		return nil, err
	}
	if msg.ID == 0 {
		return nil, nil
	}
	return &msg, nil
}

// ListOrdered returns the session log sorted by (created_at, id).
func (r *MessageRepository) ListOrdered(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FirstWithRole returns, per session, the earliest message of role by
// (created_at, id). Sessions with no such message are absent from the map.
func (r *MessageRepository) FirstWithRole(ctx context.Context, sessionIDs []uuid.UUID, role enums.MessageRole) (map[uuid.UUID]*models.Message, error) {
	out := make(map[uuid.UUID]*models.Message, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}

	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("messages.session_id IN ? AND messages.role = ?", sessionIDs, role).
		Where(`NOT EXISTS (
			SELECT 1 FROM messages AS earlier
			WHERE earlier.session_id = messages.session_id
			  AND earlier.role = messages.role
			  AND (earlier.created_at < messages.created_at
			       OR (earlier.created_at = messages.created_at AND earlier.id < messages.id)))`).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].SessionID] = &rows[i]
	}
	return out, nil
}

// Count returns how many messages the session holds.
func (r *MessageRepository) Count(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}
