package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaketodo/backend/internal/auth"
	"github.com/jaketodo/backend/internal/todos"
	"go.uber.org/zap"
)

const (
	requestIDContextKey = "jaketodo_request_id"
	requestIDHeader     = "X-Request-ID"
)

var (
	errMissingGate        = errors.New("token gate dependency required")
	errMissingTodoService = errors.New("todo service dependency required")
)

// Dependencies wires the HTTP layer to the access gate and the todo
// repository.
type Dependencies struct {
	Gate        *auth.TokenGate
	TodoService *todos.Service
	Logger      *zap.Logger
}

// NewHTTPHandler builds the gin router exposing the todo API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Gate == nil {
		return nil, errMissingGate
	}
	if deps.TodoService == nil {
		return nil, errMissingTodoService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIdentifier())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		gate:   deps.Gate,
		todos:  deps.TodoService,
		logger: logger,
	}

	router.GET("/health", handler.handleHealth)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/todos", handler.handleCreateTodo)
	protected.POST("/todos/bulk", handler.handleBulkCreateTodos)
	protected.GET("/todos", handler.handleListTodos)
	protected.GET("/todos/:id", handler.handleGetTodo)
	protected.PUT("/todos/:id", handler.handleUpdateTodo)
	protected.DELETE("/todos/:id", handler.handleDeleteTodo)
	protected.POST("/todos/:id/complete", handler.handleCompleteTodo)
	protected.POST("/todos/:id/reopen", handler.handleReopenTodo)
	protected.DELETE("/admin/purge", handler.handlePurgeTodos)

	return router, nil
}

type httpHandler struct {
	gate   *auth.TokenGate
	todos  *todos.Service
	logger *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// authorizeRequest gates every todo route behind the shared-secret
// bearer check. A missing or malformed header and a wrong token are
// distinct signals at the boundary.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	err := h.gate.Authorize(c.GetHeader("Authorization"))
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "authorization_required"})
	case errors.Is(err, auth.ErrInvalidCredential):
		h.logger.Warn("bearer token rejected", zap.String("request_id", c.GetString(requestIDContextKey)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.Next()
	}
}

// requestIdentifier tags each request with a UUIDv7 so handler error
// logs can be correlated with the response the caller saw.
func requestIdentifier() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.NewV7()
		if err == nil {
			c.Set(requestIDContextKey, id.String())
			c.Header(requestIDHeader, id.String())
		}
		c.Next()
	}
}
