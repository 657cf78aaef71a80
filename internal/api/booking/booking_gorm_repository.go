package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var _ Repository = (*GormBookingRepo)(nil)

type bookingStateModel struct {
	ID          uuid.UUID      `gorm:"type:text;primaryKey"`
	TenantID    string         `gorm:"not null;index:idx_booking_state_session"`
	UserKey     string         `gorm:"not null;default:'';index:idx_booking_state_session"`
	ServiceType string         `gorm:"not null"`
	CurrentStep string         `gorm:"not null"`
	TempData    map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time      `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime:false"`
}

func (bookingStateModel) TableName() string { return "booking_state" }

type bookingModel struct {
	ID             uuid.UUID      `gorm:"type:text;primaryKey"`
	TenantID       string         `gorm:"not null"`
	UserKey        string         `gorm:"not null;default:''"`
	BookingStateID uuid.UUID      `gorm:"type:text"`
	ServiceType    string         `gorm:"not null"`
	ReferenceID    string         `gorm:"not null;uniqueIndex"`
	Status         string         `gorm:"not null"`
	PaymentStatus  string         `gorm:"not null"`
	Details        map[string]any `gorm:"serializer:json"`
	CreatedAt      time.Time      `gorm:"autoCreateTime:false"`
}

func (bookingModel) TableName() string { return "bookings" }

// GormModels lists the tables GormBookingRepo needs migrated.
func GormModels() []any {
	return []any{&bookingStateModel{}, &bookingModel{}}
}

// GormBookingRepo backs single-node deployments with the embedded sqlite store.
type GormBookingRepo struct {
	logger *slog.Logger
	db     *gorm.DB
}

func NewGormBookingRepo(db *gorm.DB, logger *slog.Logger) *GormBookingRepo {
	return &GormBookingRepo{logger: logger, db: db}
}

func (m *bookingStateModel) toDomain() *types.BookingState {
	data := m.TempData
	if data == nil {
		data = map[string]any{}
	}
	return &types.BookingState{
		ID:          m.ID,
		TenantID:    m.TenantID,
		UserKey:     m.UserKey,
		ServiceType: m.ServiceType,
		CurrentStep: types.BookingStep(m.CurrentStep),
		TempData:    data,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *GormBookingRepo) findOne(ctx context.Context, q *gorm.DB) (*types.BookingState, error) {
	var m bookingStateModel
	err := q.WithContext(ctx).Order("updated_at DESC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error fetching booking state: %w", err)
	}
	return m.toDomain(), nil
}

func (r *GormBookingRepo) FindFresh(ctx context.Context, session types.Session, notBefore time.Time) (*types.BookingState, error) {
	return r.findOne(ctx, r.db.Where(
		"tenant_id = ? AND user_key = ? AND current_step <> ? AND updated_at >= ?",
		session.TenantID, session.UserKey, string(types.StepCompleted), notBefore,
	))
}

func (r *GormBookingRepo) Upsert(ctx context.Context, state *types.BookingState) error {
	m := bookingStateModel{
		ID:          state.ID,
		TenantID:    state.TenantID,
		UserKey:     state.UserKey,
		ServiceType: state.ServiceType,
		CurrentStep: string(state.CurrentStep),
		TempData:    state.TempData,
		CreatedAt:   state.CreatedAt,
		UpdatedAt:   state.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert booking state", slog.String("method", "Upsert"), slog.Any("error", err))
		return fmt.Errorf("database error upserting booking state: %w", err)
	}
	return nil
}

func (r *GormBookingRepo) DeleteAllOpen(ctx context.Context, session types.Session) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_key = ? AND current_step <> ?", session.TenantID, session.UserKey, string(types.StepCompleted)).
		Delete(&bookingStateModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("database error deleting booking states: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormBookingRepo) FindReady(ctx context.Context, session types.Session) (*types.BookingState, error) {
	return r.findOne(ctx, r.db.Where(
		"tenant_id = ? AND user_key = ? AND current_step = ?",
		session.TenantID, session.UserKey, string(types.StepReady),
	))
}

func (r *GormBookingRepo) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&bookingStateModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"current_step": string(types.StepCompleted), "updated_at": at})
	if res.Error != nil {
		return fmt.Errorf("database error completing booking state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *GormBookingRepo) AppendLog(ctx context.Context, entry *types.Booking) (string, error) {
	m := bookingModel{
		ID:             entry.ID,
		TenantID:       entry.TenantID,
		UserKey:        entry.UserKey,
		BookingStateID: entry.BookingStateID,
		ServiceType:    entry.ServiceType,
		ReferenceID:    entry.ReferenceID,
		Status:         entry.Status,
		PaymentStatus:  entry.PaymentStatus,
		Details:        entry.Details,
		CreatedAt:      entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		r.logger.ErrorContext(ctx, "Failed to append booking log", slog.String("method", "AppendLog"), slog.Any("error", err))
		return "", fmt.Errorf("database error inserting booking: %w", err)
	}
	return m.ReferenceID, nil
}

func (r *GormBookingRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormBookingRepo{logger: r.logger, db: tx})
	})
}
