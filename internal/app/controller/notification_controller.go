package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/app/service"
)

type NotificationController struct {
	center *service.NotificationCenter
}

func NewNotificationController(center *service.NotificationCenter) *NotificationController {
	return &NotificationController{
		center: center,
	}
}

// GetNotifications lists notifications that have not expired yet
// GET /api/v1/notifications
func (ctrl *NotificationController) GetNotifications(c *gin.Context) {
	notifications := ctrl.center.Active()
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}
