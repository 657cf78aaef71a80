package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-travel-concierge/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

// SlotsPerCard is how many images each recommendation card carries.
const SlotsPerCard = 3

const (
	ProxyPath = "/api/v1/chat/recommendation-image"

	defaultCardName     = "Unknown"
	defaultCardCity     = "India"
	defaultCardCategory = "tourism"

	batchConcurrency = 8
)

const (
	tierEntity   = "entity"
	tierSearch   = "search"
	tierFallback = "fallback"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Resolve walks the tiers for one slot. It never fails.
	Resolve(ctx context.Context, req types.ImageRequest) string
	// ResolveBatch resolves every slot of every card and writes the URLs back.
	ResolveBatch(ctx context.Context, cards []types.RecommendationCard) error
}

type ServiceImpl struct {
	logger   *slog.Logger
	lookup   EntityLookup
	search   PhotoSearch
	fallback GenericFallback
	cache    *cache.Cache
}

// NewServiceImpl wires the tiers. lookup and search may be nil to skip a
// tier; a non-positive ttl disables the URL memo.
func NewServiceImpl(lookup EntityLookup, search PhotoSearch, fallback GenericFallback, ttl time.Duration, logger *slog.Logger) *ServiceImpl {
	if fallback == nil {
		fallback = LoremFlickr{}
	}
	s := &ServiceImpl{
		logger:   logger,
		lookup:   lookup,
		search:   search,
		fallback: fallback,
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func (s *ServiceImpl) Resolve(ctx context.Context, req types.ImageRequest) string {
	ctx, span := otel.Tracer("ImageResolver").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("image.name", req.Name),
		attribute.Int("image.index", req.Index),
	))
	defer span.End()

	cacheKey := memoKey(req)
	if s.cache != nil {
		if cached, found := s.cache.Get(cacheKey); found {
			span.SetAttributes(attribute.Bool("image.cached", true))
			return cached.(string)
		}
	}

	imageURL, tier := s.resolveTiers(ctx, req)
	span.SetAttributes(attribute.String("image.tier", tier))
	metrics.Get().ImageTierHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))

	// Fallbacks usually mean a provider blip; retry the real tiers next time.
	if s.cache != nil && tier != tierFallback {
		s.cache.Set(cacheKey, imageURL, cache.DefaultExpiration)
	}
	return imageURL
}

func (s *ServiceImpl) resolveTiers(ctx context.Context, req types.ImageRequest) (string, string) {
	l := s.logger.With(slog.String("method", "Resolve"), slog.String("name", req.Name), slog.Int("index", req.Index))

	// Entity images are a single canonical shot, so only the lead slot uses them.
	if s.lookup != nil && req.Index == 0 {
		imageURL, err := s.lookup.ImageFor(ctx, req.Name)
		if err == nil && imageURL != "" {
			return imageURL, tierEntity
		}
		l.DebugContext(ctx, "Entity lookup missed", slog.Any("error", err))
	}

	if s.search != nil {
		query := strings.TrimSpace(fmt.Sprintf("%s %s %s", req.Name, req.Category, req.City))
		results, err := s.search.Search(ctx, query)
		switch {
		case err != nil:
			l.WarnContext(ctx, "Photo search failed", slog.Any("error", err))
		case len(results) == 0:
			l.DebugContext(ctx, "Photo search returned no results")
		default:
			if imageURL := pickRank(results, req.Index, s.search.Exact()); imageURL != "" {
				return imageURL, tierSearch
			}
		}
	}

	return s.fallback.URL(req), tierFallback
}

func pickRank(results []string, index int, exact bool) string {
	if index < 0 {
		index = 0
	}
	if exact {
		if index < len(results) {
			return results[index]
		}
		return ""
	}
	return results[index%len(results)]
}

func (s *ServiceImpl) ResolveBatch(ctx context.Context, cards []types.RecommendationCard) error {
	ctx, span := otel.Tracer("ImageResolver").Start(ctx, "ResolveBatch", trace.WithAttributes(
		attribute.Int("image.cards", len(cards)),
	))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i := range cards {
		if !cards[i].IsObject() {
			continue
		}
		g.Go(func() error {
			card := &cards[i]
			name, category, city := cardFields(*card)
			urls := make([]string, SlotsPerCard)
			for j := range urls {
				urls[j] = s.Resolve(gctx, types.ImageRequest{
					Name:     name,
					Category: category,
					City:     city,
					Index:    i*SlotsPerCard + j,
				})
			}
			card.ImageURL = urls[0]
			card.Images = urls
			return nil
		})
	}
	return g.Wait()
}

// AssignSlots points every card at the image proxy: card i owns slots
// 3i, 3i+1 and 3i+2 so no two images in one reply collide. Entries that are
// not objects are left alone.
func AssignSlots(publicBaseURL string, cards []types.RecommendationCard) {
	for i := range cards {
		if !cards[i].IsObject() {
			continue
		}
		name, category, city := cardFields(cards[i])
		urls := make([]string, SlotsPerCard)
		for j := range urls {
			urls[j] = ProxyURL(publicBaseURL, name, category, city, i*SlotsPerCard+j)
		}
		cards[i].ImageURL = urls[0]
		cards[i].Images = urls
	}
}

// ProxyURL addresses one slot on the recommendation image endpoint.
func ProxyURL(publicBaseURL, name, category, city string, index int) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(publicBaseURL, "/"))
	b.WriteString(ProxyPath)
	b.WriteString("?name=")
	b.WriteString(url.QueryEscape(name))
	b.WriteString("&category=")
	b.WriteString(url.QueryEscape(category))
	b.WriteString("&city=")
	b.WriteString(url.QueryEscape(city))
	b.WriteString("&index=")
	b.WriteString(strconv.Itoa(index))
	return b.String()
}

func cardFields(c types.RecommendationCard) (name, category, city string) {
	return orDefault(c.Name, defaultCardName), orDefault(c.Category, defaultCardCategory), orDefault(c.City, defaultCardCity)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func memoKey(req types.ImageRequest) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s|%d", strings.TrimSpace(req.Name), strings.TrimSpace(req.Category), strings.TrimSpace(req.City), req.Index))
}
