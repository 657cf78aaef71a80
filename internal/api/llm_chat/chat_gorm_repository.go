package llmChat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var _ Repository = (*GormRepository)(nil)

type chatSessionModel struct {
	TenantID   string `gorm:"primaryKey"`
	UserKey    string `gorm:"primaryKey"`
	CreatedAt  time.Time
	LastSeenAt time.Time
}

func (chatSessionModel) TableName() string { return "chat_sessions" }

type conversationModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	TenantID  string `gorm:"not null;index:idx_conversations_session"`
	UserKey   string `gorm:"not null;default:'';index:idx_conversations_session"`
	Role      string `gorm:"not null"`
	Message   string `gorm:"not null"`
	CreatedAt time.Time
}

func (conversationModel) TableName() string { return "conversations" }

// GormModels lists the tables GormRepository needs migrated.
func GormModels() []any {
	return []any{&chatSessionModel{}, &conversationModel{}}
}

// GormRepository keeps sessions and transcripts in the embedded sqlite store.
type GormRepository struct {
	logger *slog.Logger
	db     *gorm.DB
	now    func() time.Time
}

func NewGormRepository(db *gorm.DB, logger *slog.Logger) *GormRepository {
	return &GormRepository{logger: logger, db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *GormRepository) TouchSession(ctx context.Context, session types.Session) error {
	now := r.now()
	m := chatSessionModel{TenantID: session.TenantID, UserKey: session.UserKey, CreatedAt: now, LastSeenAt: now}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "user_key"}},
		DoUpdates: clause.Assignments(map[string]any{"last_seen_at": now}),
	}).Create(&m).Error
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to touch chat session", slog.String("method", "TouchSession"), slog.Any("error", err))
		return fmt.Errorf("database error touching session: %w", err)
	}
	return nil
}

func (r *GormRepository) AppendMessages(ctx context.Context, entries []types.ConversationEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]conversationModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, conversationModel{
			TenantID:  e.Session.TenantID,
			UserKey:   e.Session.UserKey,
			Role:      string(e.Role),
			Message:   e.Message,
			CreatedAt: e.Timestamp,
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		r.logger.ErrorContext(ctx, "Failed to append conversation", slog.String("method", "AppendMessages"), slog.Any("error", err))
		return fmt.Errorf("database error appending conversation: %w", err)
	}
	return nil
}
