package llmChat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository records who talked to the concierge and what was said.
type Repository interface {
	// TouchSession creates the session row on first contact and refreshes
	// last_seen_at afterwards.
	TouchSession(ctx context.Context, session types.Session) error
	// AppendMessages writes transcript lines in order, all or nothing.
	AppendMessages(ctx context.Context, entries []types.ConversationEntry) error
}

// DBTX is the slice of pgx used here.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     DBTX
}

func NewRepositoryImpl(db DBTX, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

func (r *RepositoryImpl) TouchSession(ctx context.Context, session types.Session) error {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "TouchSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "chat_sessions"),
	))
	defer span.End()

	query := `
        INSERT INTO chat_sessions (tenant_id, user_key, created_at, last_seen_at)
        VALUES ($1, $2, NOW(), NOW())
        ON CONFLICT (tenant_id, user_key) DO UPDATE SET last_seen_at = NOW()`

	if _, err := r.db.Exec(ctx, query, session.TenantID, session.UserKey); err != nil {
		r.logger.ErrorContext(ctx, "Failed to touch chat session", slog.String("method", "TouchSession"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB upsert failed")
		return fmt.Errorf("database error touching session: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *RepositoryImpl) AppendMessages(ctx context.Context, entries []types.ConversationEntry) error {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "AppendMessages", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "conversations"),
		attribute.Int("entries", len(entries)),
	))
	defer span.End()

	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to start transaction")
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	query := `
        INSERT INTO conversations (tenant_id, user_key, role, message, created_at)
        VALUES ($1, $2, $3, $4, $5)`

	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, e.Session.TenantID, e.Session.UserKey, string(e.Role), e.Message, e.Timestamp); err != nil {
			r.logger.ErrorContext(ctx, "Failed to append conversation entry", slog.String("method", "AppendMessages"), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB insert failed")
			return fmt.Errorf("database error appending conversation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return fmt.Errorf("failed to commit conversation: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
