package api

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/gridcast/internal/cache"
	"github.com/lox/gridcast/internal/forecast"
	"github.com/lox/gridcast/internal/store"
)

type Server struct {
	presenter *forecast.Presenter
	store     *store.Store
	port      string
	tmpl      *template.Template
	charts    *cache.Cache[[]byte]
	results   *cache.Cache[*forecast.Result]
}

// NewServer returns a server answering from presenter. store may be nil,
// in which case /health omits database stats.
func NewServer(presenter *forecast.Presenter, store *store.Store, port string) *Server {
	return &Server{
		presenter: presenter,
		store:     store,
		port:      port,
		tmpl:      newTemplates(),
		charts:    cache.New[[]byte](time.Hour, 256),
		results:   cache.New[*forecast.Result](time.Hour, 256),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/chart.png", s.handleChart)
	mux.HandleFunc("/api/forecast", s.handleAPIForecast)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
