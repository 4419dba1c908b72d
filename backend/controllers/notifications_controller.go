package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"
)

type NotificationsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewNotificationsController(db *gorm.DB, cfg *config.Config) *NotificationsController {
	return &NotificationsController{DB: db, Cfg: cfg}
}

func (nc *NotificationsController) ListNotifications(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, nc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	unreadOnly := c.Query("unread") == "true"

	query := nc.DB.Where("recipient_id = ?", userID).Order("created_at DESC")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch notifications")
	}

	return utils.Success(c, fiber.StatusOK, notifications)
}

func (nc *NotificationsController) MarkRead(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, nc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	notificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid notification ID")
	}

	var notification models.Notification
	if err := nc.DB.Where("id = ? AND recipient_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		return utils.NotFound(c, "Notification not found")
	}

	notification.Read = true
	if err := nc.DB.Save(&notification).Error; err != nil {
		return utils.InternalServerError(c, "Could not update notification")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Notification marked as read",
	})
}
