package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"casino-monitor/src/helpers"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
	"casino-monitor/src/network"
	"casino-monitor/src/stream"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Manager *stream.Manager
	Backend *network.BackendClient
	engine  *gin.Engine
	httpSrv *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once

	// Updates and removals waiting for the hub, coalesced per key
	pending   map[string]hubEvent
	order     []string
	pendingMu sync.Mutex
	wake      chan struct{}

	// Latest snapshot per subscription key
	latest     map[string]models.MSubscriptionSnapshot
	stateMutex sync.RWMutex

	// Handles opened through the REST API
	owned   map[string]*stream.Handle
	ownedMu sync.Mutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewDashboardServer builds the REST and WebSocket surface. backend may be nil.
func NewDashboardServer(cfg *models.MConfig, manager *stream.Manager, backend *network.BackendClient, log *logger.Logger) *DashboardServer {
	if strings.ToUpper(cfg.LogLevel) != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:     cfg,
		Logger:     log,
		Manager:    manager,
		Backend:    backend,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		pending:    make(map[string]hubEvent),
		wake:       make(chan struct{}, 1),
		latest:     make(map[string]models.MSubscriptionSnapshot),
		owned:      make(map[string]*stream.Handle),
	}
	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.engine,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)

	subs := api.Group("/subscriptions")
	subs.GET("", s.listSubscriptions)
	subs.POST("", s.openSubscription)
	subs.GET("/:key", s.getSubscription)
	subs.DELETE("/:key", s.closeSubscription)
	subs.POST("/:key/history", s.requestHistory)
	subs.POST("/:key/prediction", s.requestPrediction)

	api.GET("/bookmakers", s.getBookmakers)
	api.GET("/connections/:game", s.getConnections)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and blocks serving HTTP until Stop.
func (s *DashboardServer) Start() error {
	s.Logger.Info("Starting dashboard on %s", s.httpSrv.Addr)

	go s.handleWebsockets()

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop releases REST-owned handles and shuts the listener down.
func (s *DashboardServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.ownedMu.Lock()
		owned := s.owned
		s.owned = make(map[string]*stream.Handle)
		s.ownedMu.Unlock()
		for _, h := range owned {
			s.Manager.Close(h)
		}

		close(s.quit)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.httpSrv.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	s.stateMutex.RUnlock()

	status := s.Manager.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   connections,
		"subscriptions": status.Sessions,
		"handles":       status.Handles,
		"pending":       status.Pending,
		"errors":        status.Errors,
		"memory":        helpers.ReadMemoryReport(),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	games := make([]string, 0, len(s.Config.Games))
	for name := range s.Config.Games {
		games = append(games, name)
	}
	sort.Strings(games)
	c.JSON(http.StatusOK, gin.H{
		"games":    games,
		"analysis": s.Config.Analysis,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) listSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, s.Manager.Snapshots())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) openSubscription(c *gin.Context) {
	var sub models.MSubscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := sub.Key()

	s.ownedMu.Lock()
	defer s.ownedMu.Unlock()
	if h, ok := s.owned[key]; ok && h.Valid() {
		snap, _ := h.Snapshot()
		c.JSON(http.StatusOK, snap)
		return
	}

	h, err := s.Manager.Open(c.Request.Context(), sub)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	s.owned[key] = h

	snap, _ := h.Snapshot()
	c.JSON(http.StatusCreated, snap)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getSubscription(c *gin.Context) {
	lookup := s.Manager.Snapshot
	if c.Query("order") == "desc" {
		lookup = s.Manager.NewestSnapshot
	}
	snap, ok := lookup(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) closeSubscription(c *gin.Context) {
	key := c.Param("key")

	s.ownedMu.Lock()
	h, ok := s.owned[key]
	delete(s.owned, key)
	s.ownedMu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not opened here"})
		return
	}
	s.Manager.Close(h)
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) requestHistory(c *gin.Context) {
	s.withHandle(c, (*stream.Handle).RequestHistory)
}

func (s *DashboardServer) requestPrediction(c *gin.Context) {
	s.withHandle(c, (*stream.Handle).RequestPrediction)
}

func (s *DashboardServer) withHandle(c *gin.Context, fn func(*stream.Handle) error) {
	h, ok := s.Manager.Handle(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err := fn(h); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "requested"})
}

// -----------------------------------------------------------------------------
// Backend passthrough
// -----------------------------------------------------------------------------

func (s *DashboardServer) getBookmakers(c *gin.Context) {
	if s.Backend == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend not configured"})
		return
	}

	var (
		list []models.MBookmaker
		err  error
	)
	if gameID := c.Query("game_id"); gameID != "" {
		id, convErr := parsePositive(gameID)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": convErr.Error()})
			return
		}
		list, err = s.Backend.BookmakersByGame(c.Request.Context(), id)
	} else {
		list, err = s.Backend.Bookmakers(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.MAPIResponse[[]models.MBookmaker]{Success: true, Data: list})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConnections(c *gin.Context) {
	if s.Backend == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend not configured"})
		return
	}
	game := c.Param("game")
	if !models.GameKind(game).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game " + game})
		return
	}
	list, err := s.Backend.ConnectionsStatus(c.Request.Context(), game)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.MAPIResponse[[]models.MConnectionInfo]{Success: true, Data: list})
}
