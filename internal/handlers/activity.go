package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/casey/buddyup-api/internal/database"
	"github.com/casey/buddyup-api/internal/middleware"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetGoalActivity returns paginated activity for a goal
func GetGoalActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	if !isGoalParticipant(goalID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	// Pagination
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	var activities []models.Activity
	database.DB.Where("goal_id = ?", goalID).
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities)

	var total int64
	database.DB.Model(&models.Activity{}).Where("goal_id = ?", goalID).Count(&total)

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

// LogActivity records a buddy event on a goal's feed.
func LogActivity(goalID, userID uuid.UUID, actionType string, targetID *uuid.UUID, metadata map[string]interface{}) {
	activity := models.Activity{
		GoalID:     goalID,
		UserID:     userID,
		ActionType: actionType,
		TargetID:   targetID,
	}

	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			s := string(data)
			activity.Metadata = &s
		}
	}

	database.DB.Create(&activity)
}
