package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/audiolibrelab/looper/internal/playlist"
	"github.com/audiolibrelab/looper/internal/recording"
	"github.com/gin-gonic/gin"
)

// StatusResponse represents the JSON response for the status endpoint
type StatusResponse struct {
	Status  string                 `json:"status"`
	Label   string                 `json:"label"`
	Message string                 `json:"message,omitempty"`
	Session *recording.SessionInfo `json:"session,omitempty"`
	Records int                    `json:"records"`
}

// RecordsResponse lists the records with their playback state
type RecordsResponse struct {
	Records []playlist.Row `json:"records"`
	Count   int            `json:"count"`
}

// GenericResponse represents a generic API response
type GenericResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "looper",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) handleStatus(c *gin.Context) {
	status := s.service.Status()
	response := StatusResponse{
		Status:  string(status),
		Label:   status.Label(),
		Records: len(s.service.Rows()),
	}
	if session, ok := s.service.Session(); ok {
		response.Session = &session
	}
	if msg, ok := s.service.LastMessage(); ok {
		response.Message = msg.Text
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleAmplitude(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"amplitude": s.service.Amplitude()})
}

func (s *Server) handleRecords(c *gin.Context) {
	rows := s.service.Rows()
	c.JSON(http.StatusOK, RecordsResponse{Records: rows, Count: len(rows)})
}

func (s *Server) handleToggleRecord(c *gin.Context) {
	result, err := s.service.ToggleRecord(c.Request.Context())
	if err != nil {
		s.sendError(c, err, "operation", "toggle_record")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePlay(c *gin.Context) {
	loop := false
	if raw := c.Query("loop"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Error: "loop must be a boolean"})
			return
		}
		loop = parsed
	}

	// Playback outlives the request
	if err := s.service.Play(context.WithoutCancel(c.Request.Context()), c.Param("id"), loop); err != nil {
		s.sendError(c, err, "operation", "play", "record", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Playing " + c.Param("id")})
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.service.Stop(c.Param("id")); err != nil {
		s.sendError(c, err, "operation", "stop", "record", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Stopped " + c.Param("id")})
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.service.Delete(c.Param("id")); err != nil {
		s.sendError(c, err, "operation", "delete", "record", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Deleted " + c.Param("id")})
}

func (s *Server) handleStopAll(c *gin.Context) {
	s.service.StopAll()
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Playback stopped"})
}

func (s *Server) handleStream(c *gin.Context) {
	id, err := s.service.Resolve(c.Param("id"))
	if err != nil {
		s.sendError(c, err, "operation", "stream")
		return
	}
	for _, row := range s.service.Rows() {
		if row.Record.ID() == id {
			c.Header("Accept-Ranges", "bytes")
			c.File(row.Record.Path)
			return
		}
	}
	s.sendError(c, playlist.ErrRecordNotFound, "operation", "stream")
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "error", err)
		return
	}
	newClient(s.hub, conn).start()
}

// sendError maps service errors to HTTP status codes
func (s *Server) sendError(c *gin.Context, err error, logContext ...any) {
	code := statusCode(err)

	logFields := []any{"error", err, "status_code", code}
	logFields = append(logFields, logContext...)
	if code >= http.StatusInternalServerError {
		slog.Error("Sending error response to client", logFields...)
	} else {
		slog.Debug("Sending error response to client", logFields...)
	}

	c.JSON(code, GenericResponse{Success: false, Error: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, playlist.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, recording.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, recording.ErrAlreadyRecording), errors.Is(err, recording.ErrNotRecording):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
