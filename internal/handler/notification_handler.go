package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/service"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// NotificationHandler exposes the actor's notification feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List the actor's notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	limit, offset := pageWindow(c)
	events, err := h.notifications.ListForActor(c.Request.Context(), actorFromContext(c), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
