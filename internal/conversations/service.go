package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/db"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/llm"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
)

const defaultSystemPrompt = "You are a helpful assistant."

// Service is the conversation engine: sessions, their message logs and the
// round trip to the assistant.
type Service interface {
	CreateSession(ctx context.Context, caller authz.Caller) (*CreatedSession, error)
	ListSessions(ctx context.Context, caller authz.Caller) ([]SessionSummary, error)
	ListMessages(ctx context.Context, caller authz.Caller, sessionID uuid.UUID) ([]MessageDTO, error)
	SendMessage(ctx context.Context, caller authz.Caller, sessionID uuid.UUID, content string) (*Reply, error)
}

// ServiceParams bundles the dependencies of the conversation service.
type ServiceParams struct {
	DB        *db.Client
	Completer llm.Completer
	Config    config.ConversationConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	db           *db.Client
	completer    llm.Completer
	systemPrompt string
	titleLength  int
	logg         *logger.Logger
	now          func() time.Time
}

// NewService constructs the conversation service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Completer == nil {
		return nil, fmt.Errorf("llm completer is required")
	}
	prompt := params.Config.SystemPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultSystemPrompt
	}
	titleLength := params.Config.TitleLength
	if titleLength <= 0 {
		titleLength = 20
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:           params.DB,
		completer:    params.Completer,
		systemPrompt: prompt,
		titleLength:  titleLength,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// CreateSession opens a session and seeds it with the system prompt in one
// transaction.
func (s *service) CreateSession(ctx context.Context, caller authz.Caller) (*CreatedSession, error) {
	if err := authz.Require(caller, authz.ActionCreateSession); err != nil {
		return nil, err
	}

	var created *CreatedSession
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		session, err := NewSessionRepository(tx).Create(ctx, caller.UserID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
		}
		if _, err := NewMessageRepository(tx).Append(ctx, session.ID, enums.MessageRoleSystem, s.systemPrompt, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed system message")
		}
		created = &CreatedSession{SessionID: session.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) ListSessions(ctx context.Context, caller authz.Caller) ([]SessionSummary, error) {
	if err := authz.Require(caller, authz.ActionListSessions); err != nil {
		return nil, err
	}

	conn := s.db.DB()
	sessions, err := NewSessionRepository(conn).ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sessions")
	}

	ids := make([]uuid.UUID, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	firsts, err := NewMessageRepository(conn).FirstWithRole(ctx, ids, enums.MessageRoleUser)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session titles")
	}

	out := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		created := session.CreatedAt.UTC()
		out = append(out, SessionSummary{
			SessionID: session.ID,
			Title:     sessionTitle(session, firsts[session.ID], s.titleLength),
			StartTime: created,
			Date:      created.Format(dateLayout),
		})
	}
	return out, nil
}

func (s *service) ListMessages(ctx context.Context, caller authz.Caller, sessionID uuid.UUID) ([]MessageDTO, error) {
	if err := authz.Require(caller, authz.ActionReadMessages); err != nil {
		return nil, err
	}

	conn := s.db.DB()
	session, err := NewSessionRepository(conn).FindOwned(ctx, sessionID, caller.UserID)
	if err != nil {
		return nil, sessionLookupError(err)
	}
	history, err := NewMessageRepository(conn).ListOrdered(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	return messagesFromModels(history), nil
}

// SendMessage resolves the caller's session, appends the user's message,
// sends the full ordered log upstream and appends the reply. The session row stays locked for the whole
// exchange, and a failed upstream call rolls back the user's message.
func (s *service) SendMessage(ctx context.Context, caller authz.Caller, sessionID uuid.UUID, content string) (*Reply, error) {
	if err := authz.Require(caller, authz.ActionSendMessage); err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, sessionID.String())
	}

	var reply *Reply
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		session, err := NewSessionRepository(tx).LockOwned(ctx, sessionID, caller.UserID)
		if err != nil {
			return sessionLookupError(err)
		}
		if strings.TrimSpace(content) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "no message provided")
		}

		messages := NewMessageRepository(tx)
		if _, err := messages.Append(ctx, session.ID, enums.MessageRoleUser, content, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append user message")
		}

		history, err := messages.ListOrdered(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load history")
		}

		answer, err := s.completer.Complete(ctx, buildPayload(history))
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "assistant completion failed", err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "assistant is unavailable")
		}

		if _, err := messages.Append(ctx, session.ID, enums.MessageRoleAssistant, answer, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append assistant message")
		}
		reply = &Reply{AssistantMessage: answer, SessionID: session.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func sessionLookupError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup session")
}
