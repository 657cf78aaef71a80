package booking

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/api"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// ConfirmBooking handles POST /booking/confirm.
func (h *HandlerImpl) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("BookingHandler").Start(r.Context(), "ConfirmBooking", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/booking/confirm"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ConfirmBooking"))

	var req types.ConfirmBookingRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.HotelID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "hotel_id is required")
		return
	}

	confirmation, err := h.service.Confirm(ctx, req.Session())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm failed")
		api.ServiceErrorResponse(w, r, err, "Failed to confirm booking")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, confirmation)
}
