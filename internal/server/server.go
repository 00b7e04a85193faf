package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// amplitudeInterval is how often the recording level is pushed to clients
const amplitudeInterval = 100 * time.Millisecond

// Server represents the web server for controlling the looper
type Server struct {
	service service.Service
	cfg     *config.Config
	hub     *Hub
	router  *gin.Engine

	upgrader *websocket.Upgrader
}

// New creates a web server on svc. hub should also be the notifier given
// to the service so notices reach websocket clients.
func New(cfg *config.Config, svc service.Service, hub *Hub) *Server {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		service: svc,
		cfg:     cfg,
		hub:     hub,

		upgrader: newUpgrader(cfg.Server.CORSOrigins),
	}
	s.router = s.setupRouter()
	svc.Subscribe(hub)

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(s.corsMiddleware())

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/amplitude", s.handleAmplitude)
		api.POST("/record/toggle", s.handleToggleRecord)
		api.POST("/stop", s.handleStopAll)

		records := api.Group("/records")
		{
			records.GET("", s.handleRecords)
			records.GET("/:id/stream", s.handleStream)
			records.POST("/:id/play", s.handlePlay)
			records.POST("/:id/stop", s.handleStop)
			records.DELETE("/:id", s.handleDelete)
		}

		api.GET("/ws", s.handleWebSocket)
	}

	return r
}

// corsMiddleware admits the configured origins. An empty list allows
// same-origin requests only; "*" has to be listed to open the API to any page.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(s.cfg.Server.CORSOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	} else {
		corsConfig.AllowOrigins = s.cfg.Server.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}

	return cors.New(corsConfig)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)
	go s.pumpAmplitude(ctx)

	srv := &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: s.router,
	}

	slog.Info("Starting looper web server",
		"port", s.cfg.Server.Port,
		"local_url", fmt.Sprintf("http://%s:%s", getLocalIP(), s.cfg.Server.Port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.cfg.Server.Port))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// pumpAmplitude pushes the recording level while a session is active
func (s *Server) pumpAmplitude(ctx context.Context) {
	ticker := time.NewTicker(amplitudeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.service.Status() != service.StatusRecording {
				continue
			}
			s.hub.Broadcast(Message{Type: MessageAmplitude, Amplitude: s.service.Amplitude()})
		}
	}
}

func getLocalIP() string {
	// Try to connect to a remote address to determine local IP
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
