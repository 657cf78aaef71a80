package images

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/api"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

const (
	proxyDefaultCategory = "tourism"
	proxyDefaultCity     = "Hyderabad"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GetRecommendationImage handles GET /chat/recommendation-image and redirects
// to the resolved picture. Clients load these lazily after the reply renders.
func (h *HandlerImpl) GetRecommendationImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ImagesHandler").Start(r.Context(), "GetRecommendationImage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(ProxyPath),
	))
	defer span.End()

	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "name is required")
		return
	}

	index := 0
	if raw := q.Get("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.logger.WarnContext(ctx, "Invalid image index", slog.String("handler", "GetRecommendationImage"), slog.String("index", raw))
			api.ErrorResponse(w, r, http.StatusBadRequest, "index must be a non-negative integer")
			return
		}
		index = n
	}

	req := types.ImageRequest{
		Name:     name,
		Category: orDefault(q.Get("category"), proxyDefaultCategory),
		City:     orDefault(q.Get("city"), proxyDefaultCity),
		Index:    index,
	}
	target := h.service.Resolve(ctx, req)
	span.SetAttributes(attribute.String("image.url", target))

	http.Redirect(w, r, target, http.StatusFound)
}
