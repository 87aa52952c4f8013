// Package server exposes stream resolution and catalog lookups over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unistream/internal/httputil"
	"unistream/internal/media"
	"unistream/internal/provider"
	"unistream/internal/resolve"
	"unistream/internal/streamerr"
	"unistream/internal/subtitle"
)

// Catalog is the metadata lookup the server delegates to.
type Catalog interface {
	Search(ctx context.Context, query string) ([]media.SearchResult, error)
	Details(ctx context.Context, id string) (*media.Details, error)
	Popular(ctx context.Context) ([]media.SearchResult, error)
}

// Server holds the HTTP handlers.
type Server struct {
	engine    *resolve.Engine
	catalog   Catalog
	preferred provider.Name
}

// New creates a server. preferred is used when a request names no provider.
func New(engine *resolve.Engine, catalog Catalog, preferred provider.Name) *Server {
	return &Server{engine: engine, catalog: catalog, preferred: preferred}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all routes on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/providers", s.handleProviders)
	r.GET("/streams", s.handleStreams)
	r.GET("/streams/all", s.handleAllStreams)
	r.GET("/search", s.handleSearch)
	r.GET("/details/:kind/:id", s.handleDetails)
	r.GET("/popular", s.handlePopular)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}

type streamsResponse struct {
	Streams []media.Stream `json:"streams"`
}

type resultsResponse struct {
	Results []media.SearchResult `json:"results"`
}

type errorResponse struct {
	Error    string              `json:"error"`
	Kind     string              `json:"kind,omitempty"`
	Failures []streamerr.Failure `json:"failures,omitempty"`
}

func (s *Server) handleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.engine.Providers()})
}

func (s *Server) handleStreams(c *gin.Context) {
	token := c.Query("ref")
	if token == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing ref parameter"})
		return
	}

	preferred := s.preferred
	if p := c.Query("provider"); p != "" {
		preferred = providerName(p)
	}

	streams, err := s.engine.FirstAvailable(c.Request.Context(), token, preferred)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, streamsResponse{Streams: subtitle.Apply(streams, lang(c))})
}

func (s *Server) handleAllStreams(c *gin.Context) {
	token := c.Query("ref")
	if token == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing ref parameter"})
		return
	}

	// An unknown exclude name simply excludes nothing.
	exclude := providerName(c.Query("exclude"))

	streams, err := s.engine.AllMerged(c.Request.Context(), token, exclude)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, streamsResponse{Streams: subtitle.Apply(streams, lang(c))})
}

func (s *Server) handleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing q parameter"})
		return
	}

	results, err := s.catalog.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultsResponse{Results: results})
}

func (s *Server) handleDetails(c *gin.Context) {
	kind, tmdbID := c.Param("kind"), c.Param("id")
	for _, seg := range []string{kind, tmdbID} {
		if err := httputil.ValidateID(seg); err != nil {
			writeError(c, streamerr.Invalid("details id: %v", err))
			return
		}
	}

	details, err := s.catalog.Details(c.Request.Context(), kind+"/"+tmdbID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) handlePopular(c *gin.Context) {
	results, err := s.catalog.Popular(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultsResponse{Results: results})
}

func providerName(s string) provider.Name {
	return provider.Name(strings.ToLower(strings.TrimSpace(s)))
}

// lang returns the ?lang= subtitle filter. Without it, or with "all",
// records are returned as resolved.
func lang(c *gin.Context) string {
	l := strings.TrimSpace(c.Query("lang"))
	if strings.EqualFold(l, "all") {
		return ""
	}
	return l
}

// StatusFor maps an error onto an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, provider.ErrUnknownProvider) {
		return http.StatusBadRequest
	}
	switch streamerr.KindOf(err) {
	case streamerr.InvalidReference:
		return http.StatusBadRequest
	case streamerr.NoStreamsFound:
		return http.StatusNotFound
	case streamerr.UpstreamAuthRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func writeError(c *gin.Context, err error) {
	resp := errorResponse{Error: err.Error()}
	if kind := streamerr.KindOf(err); kind != streamerr.Unknown {
		resp.Kind = kind.String()
	}
	var se *streamerr.Error
	if errors.As(err, &se) {
		resp.Failures = se.Failures
	}
	c.JSON(StatusFor(err), resp)
}
