// Package server exposes a local read-only status API over the store
// and tracker, plus the Prometheus scrape endpoint. It never mutates
// core state.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lh2uav/groundlink/internal/observability"
	"github.com/lh2uav/groundlink/internal/reliable"
	"github.com/lh2uav/groundlink/internal/store"
)

// Server serves station status snapshots for local dashboards.
type Server struct {
	store     *store.Store
	tracker   *reliable.Tracker
	router    *gin.Engine
	startedAt time.Time
}

func New(st *store.Store, tr *reliable.Tracker) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store:     st,
		tracker:   tr,
		router:    gin.New(),
		startedAt: time.Now(),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.router }

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) registerRoutes() {
	observability.RegisterMetrics()

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.startedAt).String(),
			"service": "groundlink",
		})
	})

	s.router.GET("/api/current", func(c *gin.Context) {
		cv := s.store.Current()
		c.JSON(http.StatusOK, gin.H{
			"has_data":   cv.HasData,
			"t0_c":       jsonNum(cv.T0C),
			"t1_c":       jsonNum(cv.T1C),
			"p_kpa":      jsonNum(cv.PkPa),
			"heater_pct": jsonNum(cv.HeaterPct),
			"valve_pct":  jsonNum(cv.ValvePct),
			"telem_ms":   cv.TelemMs,
		})
	})

	s.router.GET("/api/recording", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"enabled":    s.store.Recording(),
			"points":     s.store.RecPoints(),
			"duration_s": s.store.RecDuration(),
		})
	})

	s.router.GET("/api/plot", func(c *gin.Context) {
		ps := s.store.PlotSeries()
		c.JSON(http.StatusOK, gin.H{
			"time_s": ps.TimeS,
			"t0_raw": jsonNums(ps.T0Raw),
			"t1_raw": jsonNums(ps.T1Raw),
			"p_raw":  jsonNums(ps.PRaw),
			"t0_f":   jsonNums(ps.T0F),
			"t1_f":   jsonNums(ps.T1F),
			"p_f":    jsonNums(ps.PF),
		})
	})

	s.router.GET("/api/command", func(c *gin.Context) {
		snap := s.tracker.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"state":       snap.State,
			"pending":     snap.Pending,
			"description": snap.Description,
			"retry_n":     snap.RetryN,
			"gate":        s.tracker.Gate(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
