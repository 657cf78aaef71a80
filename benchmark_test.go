package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

func BenchmarkChatMessage(b *testing.B) {
	_, handler := newTestApp(b, "file:bench-chat?mode=memory&cache=shared", &fakeModel{})

	body, err := json.Marshal(types.ChatRequest{
		HotelID:   "hotel-bench",
		SessionID: "guest-bench",
		Messages:  []types.ChatMessage{{Role: types.RoleUser, Content: "Which sights should I visit?"}},
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			b.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
		}
	}
}

func BenchmarkBookingTurn(b *testing.B) {
	_, handler := newTestApp(b, "file:bench-booking?mode=memory&cache=shared", &fakeModel{})

	body, err := json.Marshal(types.ChatRequest{
		HotelID:  "hotel-bench",
		Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "book a cab"}},
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", bytes.NewReader(body)))
		if rr.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rr.Code)
		}
	}
}

func BenchmarkZones(b *testing.B) {
	_, handler := newTestApp(b, "file:bench-zones?mode=memory&cache=shared", &fakeModel{})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/zones?lat=26.9&lon=75.8", nil))
		if rr.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rr.Code)
		}
	}
}
