package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

// FreshnessWindow is how long an open negotiation stays resumable. Older
// records are treated as abandoned and a new negotiation starts.
const FreshnessWindow = 2 * time.Hour

const (
	defaultServiceType = "booking"
	statusConfirmed    = "confirmed"
	paymentPending     = "pending"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// ApplyTag merges a BOOKING_STATE payload into the session's negotiation.
	ApplyTag(ctx context.Context, session types.Session, payload map[string]any) (*types.BookingState, error)
	// Confirm turns the session's ready negotiation into a booking.
	Confirm(ctx context.Context, session types.Session) (*types.BookingConfirmation, error)
	// Reset drops every open negotiation of the session.
	Reset(ctx context.Context, session types.Session) error
	// ActiveContext summarises the fresh negotiation for the system prompt.
	ActiveContext(ctx context.Context, session types.Session) (string, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	locker Locker
	window time.Duration
	now    func() time.Time
}

// NewServiceImpl wires the negotiator. A nil locker keeps the last-writer-wins
// behaviour; a non-positive window falls back to FreshnessWindow.
func NewServiceImpl(repo Repository, locker Locker, window time.Duration, logger *slog.Logger) *ServiceImpl {
	if locker == nil {
		locker = NoopLocker{}
	}
	if window <= 0 {
		window = FreshnessWindow
	}
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		locker: locker,
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; used by tests.
func (s *ServiceImpl) WithClock(now func() time.Time) *ServiceImpl {
	s.now = now
	return s
}

func (s *ServiceImpl) ApplyTag(ctx context.Context, session types.Session, payload map[string]any) (*types.BookingState, error) {
	ctx, span := otel.Tracer("BookingService").Start(ctx, "ApplyTag", trace.WithAttributes(
		attribute.String("session.tenant_id", session.TenantID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ApplyTag"), slog.String("session", session.Key()))

	if session.TenantID == "" {
		return nil, fmt.Errorf("hotel_id is required: %w", types.ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, session.Key())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock failed")
		return nil, fmt.Errorf("lock booking session: %w", err)
	}
	defer unlock()

	now := s.now()
	state, err := s.repo.FindFresh(ctx, session, now.Add(-s.window))
	created := false
	switch {
	case errors.Is(err, types.ErrNotFound):
		created = true
		state = &types.BookingState{
			ID:        uuid.New(),
			TenantID:  session.TenantID,
			UserKey:   session.UserKey,
			CreatedAt: now,
		}
	case err != nil:
		l.ErrorContext(ctx, "Failed to look up fresh booking", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("failed to look up booking: %w", err)
	}

	state.ServiceType = stringField(payload, "type", defaultServiceType)
	state.CurrentStep = stepFromTag(payload["status"])
	state.TempData = copyMap(payload)
	state.UpdatedAt = now

	if err := s.repo.Upsert(ctx, state); err != nil {
		l.ErrorContext(ctx, "Failed to save booking state", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	metrics.Get().BookingTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", string(state.CurrentStep)),
		attribute.Bool("created", created),
	))
	l.InfoContext(ctx, "Booking state applied",
		slog.String("booking_id", state.ID.String()),
		slog.String("service_type", state.ServiceType),
		slog.String("step", string(state.CurrentStep)),
		slog.Bool("created", created),
	)
	span.SetAttributes(attribute.String("booking.id", state.ID.String()), attribute.Bool("booking.created", created))
	return state, nil
}

func (s *ServiceImpl) Confirm(ctx context.Context, session types.Session) (*types.BookingConfirmation, error) {
	ctx, span := otel.Tracer("BookingService").Start(ctx, "Confirm", trace.WithAttributes(
		attribute.String("session.tenant_id", session.TenantID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Confirm"), slog.String("session", session.Key()))

	if session.TenantID == "" {
		return nil, fmt.Errorf("hotel_id is required: %w", types.ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, session.Key())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("lock booking session: %w", err)
	}
	defer unlock()

	var confirmation *types.BookingConfirmation
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		state, err := tx.FindReady(ctx, session)
		if err != nil {
			return err
		}

		now := s.now()
		ref, err := tx.AppendLog(ctx, &types.Booking{
			ID:             uuid.New(),
			TenantID:       state.TenantID,
			UserKey:        state.UserKey,
			BookingStateID: state.ID,
			ServiceType:    state.ServiceType,
			ReferenceID:    NewReference(),
			Status:         statusConfirmed,
			PaymentStatus:  paymentPending,
			Details:        state.TempData,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}
		if err := tx.MarkCompleted(ctx, state.ID, now); err != nil {
			return err
		}

		confirmation = &types.BookingConfirmation{
			Status:      "success",
			Message:     fmt.Sprintf("Successfully booked %s", state.ServiceType),
			ReferenceID: ref,
			Details:     state.TempData,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.InfoContext(ctx, "No ready booking to confirm")
			span.SetStatus(codes.Error, "no ready booking")
			return nil, fmt.Errorf("no ready booking found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to confirm booking", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm failed")
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	metrics.Get().BookingTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", string(types.StepCompleted)),
		attribute.Bool("created", false),
	))
	l.InfoContext(ctx, "Booking confirmed", slog.String("reference_id", confirmation.ReferenceID))
	span.SetStatus(codes.Ok, "Booking confirmed")
	return confirmation, nil
}

func (s *ServiceImpl) Reset(ctx context.Context, session types.Session) error {
	ctx, span := otel.Tracer("BookingService").Start(ctx, "Reset", trace.WithAttributes(
		attribute.String("session.tenant_id", session.TenantID),
	))
	defer span.End()

	if session.TenantID == "" {
		return fmt.Errorf("hotel_id is required: %w", types.ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, session.Key())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("lock booking session: %w", err)
	}
	defer unlock()

	n, err := s.repo.DeleteAllOpen(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to reset bookings: %w", err)
	}
	s.logger.InfoContext(ctx, "Booking negotiations reset",
		slog.String("method", "Reset"),
		slog.String("session", session.Key()),
		slog.Int64("deleted", n),
	)
	return nil
}

func (s *ServiceImpl) ActiveContext(ctx context.Context, session types.Session) (string, error) {
	state, err := s.repo.FindFresh(ctx, session, s.now().Add(-s.window))
	if errors.Is(err, types.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load active booking: %w", err)
	}
	data, err := json.Marshal(state.TempData)
	if err != nil {
		return "", fmt.Errorf("encode booking data: %w", err)
	}
	return fmt.Sprintf("Service: %s, Status: %s, Data: %s", state.ServiceType, state.CurrentStep, data), nil
}

// NewReference returns a booking code of the form BK-XXXXXXXX.
func NewReference() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// stepFromTag accepts only the steps a model may request; completion is
// reachable through Confirm alone.
func stepFromTag(v any) types.BookingStep {
	if s, ok := v.(string); ok && types.BookingStep(strings.ToLower(strings.TrimSpace(s))) == types.StepReady {
		return types.StepReady
	}
	return types.StepGatheringInfo
}

func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
