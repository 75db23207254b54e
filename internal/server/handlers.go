package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaketodo/backend/internal/todos"
	"go.uber.org/zap"
)

func (h *httpHandler) handleCreateTodo(c *gin.Context) {
	var payload createPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	input, problems := payload.toInput()
	if problems != nil {
		rejectValidation(c, problems)
		return
	}

	created, err := h.todos.Create(c.Request.Context(), input)
	if err != nil {
		h.respondRepositoryError(c, "create todo failed", err)
		return
	}

	c.JSON(http.StatusCreated, newTodoPayload(created))
}

func (h *httpHandler) handleBulkCreateTodos(c *gin.Context) {
	var payload bulkCreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	inputs, problems := payload.toInputs()
	if problems != nil {
		rejectValidation(c, problems)
		return
	}

	created, err := h.todos.BulkCreate(c.Request.Context(), inputs)
	if err != nil {
		h.respondRepositoryError(c, "bulk create todos failed", err)
		return
	}

	c.JSON(http.StatusCreated, newTodoListPayload(created))
}

func (h *httpHandler) handleListTodos(c *gin.Context) {
	var filter todos.ListFilter
	problems := fieldErrors{}

	if raw, present := c.GetQuery("status"); present {
		status, err := todos.ParseStatus(raw)
		if err != nil {
			problems["status"] = "must be pending or completed"
		} else {
			filter.Status = &status
		}
	}
	if raw, present := c.GetQuery("priority"); present {
		number, err := strconv.Atoi(raw)
		if err != nil {
			problems["priority"] = "must be an integer"
		} else if priority, err := todos.NewPriority(number); err != nil {
			problems["priority"] = "must be between 1 and 4"
		} else {
			filter.Priority = &priority
		}
	}
	if len(problems) > 0 {
		rejectValidation(c, problems)
		return
	}

	records, err := h.todos.List(c.Request.Context(), filter)
	if err != nil {
		h.respondRepositoryError(c, "list todos failed", err)
		return
	}

	c.JSON(http.StatusOK, newTodoListPayload(records))
}

func (h *httpHandler) handleGetTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	record, err := h.todos.Get(c.Request.Context(), id)
	if err != nil {
		h.respondRepositoryError(c, "get todo failed", err)
		return
	}

	c.JSON(http.StatusOK, newTodoPayload(record))
}

func (h *httpHandler) handleUpdateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	input, problems := updateInputFromJSON(body)
	if problems != nil {
		rejectValidation(c, problems)
		return
	}

	updated, err := h.todos.Update(c.Request.Context(), id, input)
	if err != nil {
		h.respondRepositoryError(c, "update todo failed", err)
		return
	}

	c.JSON(http.StatusOK, newTodoPayload(updated))
}

func (h *httpHandler) handleDeleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.todos.Delete(c.Request.Context(), id); err != nil {
		h.respondRepositoryError(c, "delete todo failed", err)
		return
	}

	c.JSON(http.StatusOK, deletePayload{Message: "TODO deleted", ID: id})
}

func (h *httpHandler) handleCompleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	record, err := h.todos.Complete(c.Request.Context(), id)
	if err != nil {
		h.respondRepositoryError(c, "complete todo failed", err)
		return
	}

	c.JSON(http.StatusOK, newTodoPayload(record))
}

func (h *httpHandler) handleReopenTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	record, err := h.todos.Reopen(c.Request.Context(), id)
	if err != nil {
		h.respondRepositoryError(c, "reopen todo failed", err)
		return
	}

	c.JSON(http.StatusOK, newTodoPayload(record))
}

func (h *httpHandler) handlePurgeTodos(c *gin.Context) {
	count, err := h.todos.PurgeDeleted(c.Request.Context())
	if err != nil {
		h.respondRepositoryError(c, "purge todos failed", err)
		return
	}

	c.JSON(http.StatusOK, purgePayload{Message: "Purged deleted TODOs", Count: count})
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		rejectValidation(c, fieldErrors{"id": "must be an integer"})
		return 0, false
	}
	return id, true
}

func rejectValidation(c *gin.Context, problems fieldErrors) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation_failed",
		"fields": problems,
	})
}

// respondRepositoryError maps absence to 404 and everything else to a
// generic 500; store failures are logged with the request id, never
// surfaced to the caller.
func (h *httpHandler) respondRepositoryError(c *gin.Context, message string, err error) {
	if errors.Is(err, todos.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo_not_found"})
		return
	}
	h.logger.Error(message,
		zap.Error(err),
		zap.String("request_id", c.GetString(requestIDContextKey)))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
