package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/accordsai/eventledger/pkg/ratelimit"
	"github.com/accordsai/eventledger/services/gateway/internal/routes"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Caller    routes.Caller
	Logger    *slog.Logger
	Metrics   http.Handler
	Limiter   *ratelimit.Limiter
	StaticDir string
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Group(func(api chi.Router) {
		api.Use(d.Limiter.Middleware)
		routes.NewHandler(d.Caller, d.Logger).Mount(api)
	})

	if d.StaticDir != "" {
		if st, err := os.Stat(d.StaticDir); err == nil && st.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
		}
	}
	return r
}
