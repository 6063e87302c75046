package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"taskchat/conversation"
)

// Server exposes the conversation engine over HTTP and WebSocket.
type Server struct {
	service *conversation.Service
	log     hclog.Logger
	http    *http.Server
}

// New builds the HTTP server on the given listen address.
func New(service *conversation.Service, listen string, log hclog.Logger) *Server {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	s := &Server{service: service, log: log}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.POST("/api/:user_id/chat", s.handleChat)
	router.GET("/ws/:user_id/chat", s.handleWS)

	s.http = &http.Server{Addr: listen, Handler: router}
	return s
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleChat(c *gin.Context) {
	userID := c.Param("user_id")
	if !validUserID(userID) {
		writeError(c, &conversation.Error{
			Code:    conversation.CodeValidation,
			Message: "user_id may only contain letters, digits, '-' and '_'",
		})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &conversation.Error{
			Code:    conversation.CodeValidation,
			Message: "request body must be valid JSON",
		})
		return
	}

	resp, cerr := s.service.ProcessTurn(c.Request.Context(), conversation.TurnRequest{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	}, nil)
	if cerr != nil {
		writeError(c, cerr)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// validUserID enforces the identifier charset the engine relies on. The
// transport owns authentication; this only rejects malformed path segments.
func validUserID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

func writeError(c *gin.Context, err *conversation.Error) {
	c.JSON(statusFor(err.Code), gin.H{
		"error": gin.H{
			"code":    string(err.Code),
			"message": err.Message,
		},
	})
}

func statusFor(code conversation.Code) int {
	switch code {
	case conversation.CodeMissingParameter, conversation.CodeValidation:
		return http.StatusBadRequest
	case conversation.CodeForbidden:
		return http.StatusForbidden
	case conversation.CodeNotFound:
		return http.StatusNotFound
	case conversation.CodeAgentTimeout, conversation.CodeAgentError, conversation.CodeInternal:
		return http.StatusInternalServerError
	case conversation.CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
