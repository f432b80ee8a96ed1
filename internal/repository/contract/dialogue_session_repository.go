package contract

import (
	"context"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/specification"
)

type DialogueSessionRepository interface {
	Create(ctx context.Context, session *entity.DialogueSession) error
	Update(ctx context.Context, session *entity.DialogueSession) error
	// DeleteByConversationId removes the session row of a conversation.
	// Deleting a conversation with no row is not an error.
	DeleteByConversationId(ctx context.Context, conversationId string) error
	// DeleteExpiredBefore hard-deletes rows whose TTL elapsed before the
	// given instant and returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DialogueSession, error)
}

type ConversationLogRepository interface {
	Create(ctx context.Context, log *entity.ConversationLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationLog, error)
}
