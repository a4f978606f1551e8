package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"food-webapp/config"
	"food-webapp/models"
	"food-webapp/services"
	"food-webapp/ws"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	menu, err := services.NewStaticMenu([]models.MenuItem{
		{ID: "7", Category: models.CategoryDrink, Name: "Tea", Price: 50},
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	cfg.HTTP.CORSOrigins = []string{"https://example.org"}
	hub := ws.NewHub(nil)
	go hub.Run()
	return New(cfg, Deps{
		Menu:      menu,
		Sessions:  services.NewSessions(services.NewMemoryBlobStore(), "cart", nil),
		Submitter: services.NewSubmitter(nil, nil),
		Hub:       hub,
	})
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != `{"status":"ok"}` {
		t.Errorf("health = %d %s", rr.Code, rr.Body.String())
	}
}

func TestRoutesMounted(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/api/menu", http.StatusOK},
		{"GET", "/api/clients/1/cart", http.StatusOK},
		{"DELETE", "/api/clients/1/cart", http.StatusOK},
		{"GET", "/api/clients/bad:id/cart", http.StatusBadRequest},
		{"GET", "/ws/clients/bad:id", http.StatusBadRequest},
		{"GET", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest("OPTIONS", "/api/clients/1/cart", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
