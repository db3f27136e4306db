package notification

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		page, limit         int64
		wantPage, wantLimit int64
	}{
		{page: 2, limit: 25, wantPage: 2, wantLimit: 25},
		{page: 0, limit: 0, wantPage: 1, wantLimit: 10},
		{page: -3, limit: 500, wantPage: 1, wantLimit: 10},
		{page: 1, limit: 100, wantPage: 1, wantLimit: 100},
	}
	for _, tt := range tests {
		page, limit := Paginate(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("Paginate(%d, %d) = %d, %d, want %d, %d",
				tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestListEchoesServedPage(t *testing.T) {
	hub := NewHub(zap.NewNop())
	controller := NewNotificationController(NewNotificationService(&memNotificationRepo{}, hub, zap.NewNop()), hub)

	app := fiber.New()
	app.Get("/api/notifications", middleware.AuthMiddleware(true), controller.List)

	req := httptest.NewRequest("GET", "/api/notifications?page=0&limit=500", nil)
	req.Header.Set(middleware.DevUserHeader, primitive.NewObjectID().Hex())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Page  int64 `json:"page"`
		Limit int64 `json:"limit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Page != 1 || body.Limit != 10 {
		t.Errorf("page = %d, limit = %d, want 1, 10", body.Page, body.Limit)
	}
}
