package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var _ Repository = (*PostgresBookingRepo)(nil)

// Repository persists booking negotiations. Lookups that match nothing
// return types.ErrNotFound.
type Repository interface {
	// FindFresh returns the most recently updated non-completed record of the
	// session that was updated at or after notBefore.
	FindFresh(ctx context.Context, session types.Session, notBefore time.Time) (*types.BookingState, error)
	// Upsert inserts the record or overwrites the one with the same ID.
	Upsert(ctx context.Context, state *types.BookingState) error
	// DeleteAllOpen removes every non-completed record of the session.
	DeleteAllOpen(ctx context.Context, session types.Session) (int64, error)
	// FindReady returns the session's most recent record in step ready.
	FindReady(ctx context.Context, session types.Session) (*types.BookingState, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	// AppendLog writes an immutable booking entry and returns its reference.
	AppendLog(ctx context.Context, entry *types.Booking) (string, error)
	// WithTx runs fn against a repository bound to one transaction, committing
	// only if fn returns nil.
	WithTx(ctx context.Context, fn func(Repository) error) error
}

// DBTX is the slice of pgx used here. *pgxpool.Pool and pgx.Tx both satisfy it.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresBookingRepo struct {
	logger *slog.Logger
	db     DBTX
}

func NewPostgresBookingRepo(db DBTX, logger *slog.Logger) *PostgresBookingRepo {
	return &PostgresBookingRepo{
		logger: logger,
		db:     db,
	}
}

const bookingStateColumns = `id, tenant_id, user_key, service_type, current_step, temp_data, created_at, updated_at`

func scanBookingState(row pgx.Row) (*types.BookingState, error) {
	var (
		s        types.BookingState
		step     string
		tempData []byte
	)
	if err := row.Scan(&s.ID, &s.TenantID, &s.UserKey, &s.ServiceType, &step, &tempData, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.CurrentStep = types.BookingStep(step)
	s.TempData = map[string]any{}
	if len(tempData) > 0 {
		if err := json.Unmarshal(tempData, &s.TempData); err != nil {
			return nil, fmt.Errorf("decode temp_data: %w", err)
		}
	}
	return &s, nil
}

func (r *PostgresBookingRepo) FindFresh(ctx context.Context, session types.Session, notBefore time.Time) (*types.BookingState, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "FindFresh", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "booking_state"),
		attribute.String("session.tenant_id", session.TenantID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "FindFresh"), slog.String("session", session.Key()))

	query := `
        SELECT ` + bookingStateColumns + `
        FROM booking_state
        WHERE tenant_id = $1 AND user_key = $2
          AND current_step <> 'completed'
          AND updated_at >= $3
        ORDER BY updated_at DESC
        LIMIT 1`

	state, err := scanBookingState(r.db.QueryRow(ctx, query, session.TenantID, session.UserKey, notBefore))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "No fresh booking")
			return nil, types.ErrNotFound
		}
		l.ErrorContext(ctx, "Failed to query fresh booking state", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching fresh booking state: %w", err)
	}
	return state, nil
}

func (r *PostgresBookingRepo) Upsert(ctx context.Context, state *types.BookingState) error {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "Upsert", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "booking_state"),
		attribute.String("booking.id", state.ID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Upsert"), slog.String("booking_id", state.ID.String()))

	tempData, err := json.Marshal(state.TempData)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encode temp_data: %w", err)
	}

	query := `
        INSERT INTO booking_state (` + bookingStateColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            service_type = EXCLUDED.service_type,
            current_step = EXCLUDED.current_step,
            temp_data    = EXCLUDED.temp_data,
            updated_at   = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		state.ID, state.TenantID, state.UserKey, state.ServiceType, string(state.CurrentStep),
		tempData, state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		l.ErrorContext(ctx, "Failed to upsert booking state", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB upsert failed")
		return fmt.Errorf("database error upserting booking state: %w", err)
	}
	span.SetStatus(codes.Ok, "Booking state saved")
	return nil
}

func (r *PostgresBookingRepo) DeleteAllOpen(ctx context.Context, session types.Session) (int64, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "DeleteAllOpen", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "booking_state"),
		attribute.String("session.tenant_id", session.TenantID),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, `
        DELETE FROM booking_state
        WHERE tenant_id = $1 AND user_key = $2 AND current_step <> 'completed'`,
		session.TenantID, session.UserKey,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete open booking states", slog.String("method", "DeleteAllOpen"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return 0, fmt.Errorf("database error deleting booking states: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresBookingRepo) FindReady(ctx context.Context, session types.Session) (*types.BookingState, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "FindReady", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "booking_state"),
		attribute.String("session.tenant_id", session.TenantID),
	))
	defer span.End()

	query := `
        SELECT ` + bookingStateColumns + `
        FROM booking_state
        WHERE tenant_id = $1 AND user_key = $2 AND current_step = 'ready'
        ORDER BY updated_at DESC
        LIMIT 1
        FOR UPDATE`

	state, err := scanBookingState(r.db.QueryRow(ctx, query, session.TenantID, session.UserKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query ready booking state", slog.String("method", "FindReady"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching ready booking state: %w", err)
	}
	return state, nil
}

func (r *PostgresBookingRepo) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "MarkCompleted", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "booking_state"),
		attribute.String("booking.id", id.String()),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, `
        UPDATE booking_state SET current_step = 'completed', updated_at = $2
        WHERE id = $1`, id, at)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to complete booking state", slog.String("method", "MarkCompleted"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error completing booking state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresBookingRepo) AppendLog(ctx context.Context, entry *types.Booking) (string, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "AppendLog", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "bookings"),
		attribute.String("booking.reference", entry.ReferenceID),
	))
	defer span.End()

	details, err := json.Marshal(entry.Details)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("encode booking details: %w", err)
	}

	var ref string
	err = r.db.QueryRow(ctx, `
        INSERT INTO bookings (id, tenant_id, user_key, booking_state_id, service_type, reference_id,
                              status, payment_status, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING reference_id`,
		entry.ID, entry.TenantID, entry.UserKey, entry.BookingStateID, entry.ServiceType, entry.ReferenceID,
		entry.Status, entry.PaymentStatus, details, entry.CreatedAt,
	).Scan(&ref)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append booking log", slog.String("method", "AppendLog"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return "", fmt.Errorf("database error inserting booking: %w", err)
	}
	return ref, nil
}

func (r *PostgresBookingRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if err := fn(&PostgresBookingRepo{logger: r.logger, db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
