package zones

import (
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/api"
)

type HandlerImpl struct {
	service    Service
	logger     *slog.Logger
	defaultLat float64
	defaultLon float64
}

func NewHandlerImpl(service Service, defaultLat, defaultLon float64, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service:    service,
		logger:     logger,
		defaultLat: defaultLat,
		defaultLon: defaultLon,
	}
}

// GetZones handles GET /zones?lat=&lon=.
func (h *HandlerImpl) GetZones(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ZonesHandler").Start(r.Context(), "GetZones", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/zones"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetZones"))

	lat, err := floatParam(r, "lat", h.defaultLat)
	if err != nil {
		l.WarnContext(ctx, "Invalid latitude", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "lat must be a number")
		return
	}
	lon, err := floatParam(r, "lon", h.defaultLon)
	if err != nil {
		l.WarnContext(ctx, "Invalid longitude", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "lon must be a number")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.ScoreAll(ctx, lat, lon))
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
