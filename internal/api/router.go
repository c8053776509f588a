package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sopgate/internal/noteservice"
	"github.com/starford/sopgate/internal/sopref"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// Token is the bearer token. Empty makes every protected route answer 500.
	Token string
	// MaxBodyBytes caps JSON request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Navigator builds viewer URLs for /refs/open.
	Navigator sopref.Navigator
	// Events, if non-nil, is mounted at GET /events behind the bearer token.
	// The token is only read from the Authorization header, never from the
	// query string, so a browser EventSource needs a same-origin proxy that
	// adds the header, or a fetch-based SSE client.
	Events http.Handler
}

// NewRouter creates a chi router with all routes mounted. mws run before
// routing, outermost first.
func NewRouter(svc *noteservice.Service, cfg RouterConfig, mws ...func(http.Handler) http.Handler) chi.Router {
	h := NewHandler(svc, cfg.Navigator, cfg.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(mws...)
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	r.Get("/health", h.Health)

	// Stateless reference tools.
	r.Post("/refs/parse", h.ParseRefs)
	r.Post("/refs/render", h.RenderRefs)
	r.Get("/refs/open", h.OpenRef)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Token))

		r.Post("/obsidian/append", h.Append)
		r.Get("/refs/citations", h.Citations)
		r.Get("/notes/preview/*", h.Preview)

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.ServeHTTP)
		}
	})

	return r
}
