package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Resolve(ctx context.Context, req types.ImageRequest) string {
	return m.Called(ctx, req).String(0)
}

func (m *MockService) ResolveBatch(ctx context.Context, cards []types.RecommendationCard) error {
	return m.Called(ctx, cards).Error(0)
}

func TestGetRecommendationImage(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantReq      *types.ImageRequest
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "redirects to resolved image",
			query:        "?name=Hawa+Mahal&category=palace&city=Jaipur&index=4",
			wantReq:      &types.ImageRequest{Name: "Hawa Mahal", Category: "palace", City: "Jaipur", Index: 4},
			wantStatus:   http.StatusFound,
			wantLocation: "https://img/hawa",
		},
		{
			name:         "applies endpoint defaults",
			query:        "?name=Charminar",
			wantReq:      &types.ImageRequest{Name: "Charminar", Category: "tourism", City: "Hyderabad", Index: 0},
			wantStatus:   http.StatusFound,
			wantLocation: "https://img/hawa",
		},
		{
			name:       "name required",
			query:      "?city=Jaipur",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad index",
			query:      "?name=Charminar&index=-1",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.wantReq != nil {
				svc.On("Resolve", mock.Anything, *tt.wantReq).Return("https://img/hawa").Once()
			}
			h := NewHandlerImpl(svc, discard)

			rr := httptest.NewRecorder()
			h.GetRecommendationImage(rr, httptest.NewRequest(http.MethodGet, ProxyPath+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			}
			svc.AssertExpectations(t)
		})
	}
}
