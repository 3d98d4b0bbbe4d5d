package notification

import (
	"log/slog"
	"net/http"

	"notiq/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	gate    *Gate
	history HistoryStore
}

// NewHandler creates a new notification handler.
func NewHandler(gate *Gate, history HistoryStore) *Handler {
	return &Handler{gate: gate, history: history}
}

// Send handles POST /api/v1/notifications.
// Runs the request through the admission gate and returns 202 Accepted
// once it is durably queued.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.gate.Admit(c.Request.Context(), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, resp)
}

// ListNotifications handles GET /api/v1/notifications.
// Returns the recent-history ring, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	records, err := h.history.List(c.Request.Context())
	if err != nil {
		slog.Error("listing notifications failed", "error", err)
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, records)
}

// ListUserNotifications handles GET /api/v1/users/:id/notifications.
func (h *Handler) ListUserNotifications(c *gin.Context) {
	userID := c.Param("id")

	records, err := h.history.ListByUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("listing user notifications failed", "user_id", userID, "error", err)
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, records)
}

// ClearNotifications handles DELETE /api/v1/notifications.
// Test/reset utility: empties the recent-history ring only.
func (h *Handler) ClearNotifications(c *gin.Context) {
	if err := h.history.Clear(c.Request.Context()); err != nil {
		slog.Error("clearing notifications failed", "error", err)
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, gin.H{"status": "cleared"})
}

// GetLimits handles GET /api/v1/users/:id/limits/:type.
// Reports current usage against the quota tier for all three windows.
func (h *Handler) GetLimits(c *gin.Context) {
	userID := c.Param("id")
	ch := Channel(c.Param("type"))

	usage, err := h.gate.Usage(c.Request.Context(), userID, ch)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{
		"user_id": userID,
		"type":    ch,
		"windows": usage,
	})
}

// ResetLimits handles DELETE /api/v1/users/:id/limits/:type.
// Administrative reset of a user's counters for one channel.
func (h *Handler) ResetLimits(c *gin.Context) {
	userID := c.Param("id")
	ch := Channel(c.Param("type"))

	if err := h.gate.ResetLimits(c.Request.Context(), userID, ch); err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, gin.H{"status": "reset"})
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notifications", h.Send)
	rg.GET("/notifications", h.ListNotifications)
	rg.DELETE("/notifications", h.ClearNotifications)
	rg.GET("/users/:id/notifications", h.ListUserNotifications)
	rg.GET("/users/:id/limits/:type", h.GetLimits)
	rg.DELETE("/users/:id/limits/:type", h.ResetLimits)
}
