// Package api serves placeprep over HTTP for the web client.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/cache"
	"github.com/abhisek/placeprep/internal/metrics"
	"github.com/abhisek/placeprep/internal/speech"
	"github.com/abhisek/placeprep/internal/store"
)

// Headers carrying the caller's identity. A gateway in front of the server
// authenticates the request and sets them.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Deps are the collaborators the handlers need. Cache, Metrics, Analyzer
// and Persister are optional.
type Deps struct {
	Store    *store.Store
	Cache    *cache.ReadinessCache
	Metrics  *metrics.Metrics
	Analyzer *speech.Analyzer

	// Persister receives final attempt updates. Defaults to the store's
	// AttemptRepo.
	Persister assessment.Persister

	// Now stamps completed attempts. Defaults to time.Now.
	Now func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	tests     store.TestRepo
	attempts  store.AttemptRepo
	activity  store.ActivityRepo
	speech    store.SpeechRepo
	persister assessment.Persister
	cache     *cache.ReadinessCache
	metrics   *metrics.Metrics
	analyzer  *speech.Analyzer
	now       func() time.Time
}

// New builds a Server from d.
func New(d Deps) *Server {
	s := &Server{
		tests:     d.Store.TestRepo(),
		attempts:  d.Store.AttemptRepo(),
		activity:  d.Store.ActivityRepo(),
		speech:    d.Store.SpeechRepo(),
		persister: d.Persister,
		cache:     d.Cache,
		metrics:   d.Metrics,
		analyzer:  d.Analyzer,
		now:       d.Now,
	}
	if s.persister == nil {
		s.persister = s.attempts
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cache != nil && s.metrics != nil {
		s.cache.OnResult = s.metrics.CacheResult
	}
	return s
}

// Router returns the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:    []string{"authorization", "x-client-info", "apikey", "content-type", HeaderUserID, HeaderUserRole},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api", requireUser())
	{
		api.GET("/tests", s.listTests)
		api.GET("/tests/:id", s.getTest)
		api.POST("/tests/:id/attempts", s.startAttempt)
		api.PATCH("/attempts/:id", s.submitAttempt)
		api.GET("/me/readiness", s.getReadiness)
		api.POST("/speech/analyze", s.analyzeSpeech)
	}
	return r
}
