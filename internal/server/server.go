package server

// #region imports
import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sentinelforge/go-middleware/internal/adapter"
	"github.com/sentinelforge/go-middleware/internal/bus"
	"github.com/sentinelforge/go-middleware/internal/glyph"
	"github.com/sentinelforge/go-middleware/internal/lens"
	"github.com/sentinelforge/go-middleware/internal/orchestrator"
)

// #endregion

// #region server-struct

// Server exposes the middleware over HTTP and WebSocket.
type Server struct {
	orch    *orchestrator.Orchestrator
	events  *bus.Bus
	log     *zap.SugaredLogger
	version string
	started time.Time
}

// New wires a server. log may be nil.
func New(orch *orchestrator.Orchestrator, events *bus.Bus, version string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		orch:    orch,
		events:  events,
		log:     log,
		version: version,
		started: time.Now(),
	}
}

// #endregion

// #region router

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/chat", s.handleChat)

	r.GET("/status", s.handleStatus)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/readyz", s.handleReadyz)
	r.GET("/version", s.handleVersion)

	r.GET("/seeds", s.handleGetSeeds)
	r.POST("/seeds", s.handleAddSeeds)
	r.GET("/aliases", s.handleAliases)
	r.GET("/cog/matrix", s.handleMatrix)

	r.GET("/glyphs/shapes", s.handleShapes)
	r.GET("/glyphs/shapes/:name", s.handleShape)
	r.POST("/glyphs/pack", s.handleMergePack)
	r.POST("/glyphs/interpret", s.handleInterpret)

	r.GET("/notes", s.handleNotes)

	r.GET("/ws/cognitive", s.handleCognitiveWS)

	return r
}

// #endregion

// #region chat

type chatPayload struct {
	Message string            `json:"message" binding:"required"`
	Tag     string            `json:"tag"`
	Lens    string            `json:"lens"`
	History []adapter.Message `json:"history"`
}

func (s *Server) handleChat(c *gin.Context) {
	var payload chatPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.orch.Process(c.Request.Context(), orchestrator.ChatRequest{
		Message: payload.Message,
		Tag:     payload.Tag,
		Lens:    lens.Parse(payload.Lens),
		History: payload.History,
	})
	if err != nil {
		s.log.Errorw("chat failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// #endregion

// #region health

func (s *Server) handleStatus(c *gin.Context) {
	m := s.orch.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"version":     s.version,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"processed":   m.Processed,
		"shapes":      len(m.Shapes),
		"subscribers": s.events.SubscriberCount(),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.Metrics())
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": s.version})
}

// #endregion

// #region seeds

type seedsPayload struct {
	Seeds []string `json:"seeds" binding:"required,min=1"`
}

func (s *Server) handleGetSeeds(c *gin.Context) {
	seeds := s.orch.Seeds()
	c.JSON(http.StatusOK, gin.H{"seeds": seeds, "count": len(seeds)})
}

func (s *Server) handleAddSeeds(c *gin.Context) {
	var payload seedsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	added := s.orch.AddSeeds(payload.Seeds)
	c.JSON(http.StatusOK, gin.H{"added": added, "count": len(s.orch.Seeds())})
}

func (s *Server) handleAliases(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"aliases": s.orch.Aliases()})
}

func (s *Server) handleMatrix(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"matrix": s.orch.Matrix()})
}

// #endregion

// #region shapes

func (s *Server) handleShapes(c *gin.Context) {
	names := s.orch.Matcher().Shapes()
	shapes := make(map[string]glyph.Shape, len(names))
	for _, name := range names {
		if shape, ok := s.orch.Matcher().ShapeInfo(name); ok {
			shapes[name] = shape
		}
	}
	c.JSON(http.StatusOK, gin.H{"order": names, "shapes": shapes})
}

func (s *Server) handleShape(c *gin.Context) {
	name := c.Param("name")
	shape, ok := s.orch.Matcher().ShapeInfo(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown shape: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "shape": shape})
}

type packPayload struct {
	Shapes map[string]glyph.Shape `json:"shapes" binding:"required,min=1"`
}

func (s *Server) handleMergePack(c *gin.Context) {
	var payload packPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := s.orch.MergePack(payload.Shapes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, glyph.ErrInvalidShapeDefinition) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": true, "summary": summary})
}

type interpretPayload struct {
	Sequence string `json:"sequence" binding:"required"`
}

func (s *Server) handleInterpret(c *gin.Context) {
	var payload interpretPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.orch.Interpret(payload.Sequence))
}

// #endregion

// #region notes

func (s *Server) handleNotes(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	notes, err := s.orch.Notes(c.Query("zone"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes, "count": len(notes)})
}

// #endregion

// #region run

// Run serves until the listener fails or the context-driven caller shuts the
// http.Server down. Exposed for cmd wiring; tests use Router directly.
func (s *Server) Run(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

// #endregion
