package router

import (
	"net/http"

	"food-webapp/config"
	"food-webapp/handler"
	"food-webapp/services"
	"food-webapp/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the services the routes are built on.
type Deps struct {
	Menu      services.Menu
	Sessions  *services.Sessions
	Submitter *services.Submitter
	Hub       *ws.Hub
	Log       *zap.Logger
}

// New creates the chi router serving the mini-app API and websocket.
func New(cfg *config.Config, d Deps) chi.Router {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	langCode := d.Submitter.Lang()

	r.Route("/api", func(r chi.Router) {
		r.Route("/menu", handler.NewMenuHandler(d.Menu, langCode, log).RegisterRoutes)

		r.Route("/clients/{cid}", func(r chi.Router) {
			handler.NewCartHandler(d.Sessions, d.Menu, langCode, log).RegisterRoutes(r)

			var events handler.Publisher
			if d.Hub != nil {
				events = d.Hub
			}
			handler.NewOrderHandler(d.Sessions, d.Submitter, events, log).RegisterRoutes(r)
		})
	})

	if d.Hub != nil {
		r.Get("/ws/clients/{cid}", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(d.Hub, services.ValidClientID, w, r)
		})
	}

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}
