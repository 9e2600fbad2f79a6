package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/federated"
)

type Server struct {
	Fed      *federated.Federation
	Username string
	Password string
}

func New(fed *federated.Federation, user, pass string) *Server {
	return &Server{
		Fed:      fed,
		Username: user,
		Password: pass,
	}
}

// Handler returns the read API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.basicAuth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
		r.Get("/filters", s.handleFilters)
		r.Get("/tickets/{key}", s.handleTicket)
	})
	return r
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
