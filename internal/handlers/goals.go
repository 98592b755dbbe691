package handlers

import (
	"strings"
	"time"

	"github.com/casey/buddyup-api/internal/database"
	"github.com/casey/buddyup-api/internal/middleware"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func CreateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Goal title is required",
		})
	}
	if len(req.Title) > 200 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Goal title must be less than 200 characters",
		})
	}
	if len(req.Description) > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Goal description must be less than 1000 characters",
		})
	}

	category := models.GoalCategory(strings.ToUpper(req.Category))
	if !category.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid category. Valid categories: FITNESS, EDUCATION, HOBBY, CAREER, HEALTH, SOCIAL, CREATIVE, SPIRITUAL, OTHER",
		})
	}

	goalType := models.TypeHabit
	if req.Type != "" {
		goalType = models.GoalType(strings.ToUpper(req.Type))
	}

	difficulty := models.DifficultyMedium
	if req.Difficulty != "" {
		if d := models.Difficulty(strings.ToUpper(req.Difficulty)); d.Rank() >= 0 {
			difficulty = d
		}
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date format. Use YYYY-MM-DD",
		})
	}
	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date format. Use YYYY-MM-DD",
		})
	}
	if !targetDate.After(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Target date must be after start date",
		})
	}

	maxBuddies := req.MaxBuddies
	if maxBuddies < 1 {
		maxBuddies = 1
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	goal := models.Goal{
		UserID:           userID,
		Title:            req.Title,
		Description:      strings.TrimSpace(req.Description),
		Category:         category,
		Type:             goalType,
		Difficulty:       difficulty,
		Status:           models.GoalActive,
		StartDate:        startDate,
		TargetDate:       targetDate,
		TargetValue:      req.TargetValue,
		TargetUnit:       req.TargetUnit,
		IsPublic:         isPublic,
		MaxBuddies:       maxBuddies,
		RequiresLocation: req.RequiresLocation,
		Location:         req.Location,
	}

	if err := database.DB.Create(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create goal",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

func GetGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var goals []models.Goal
	database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&goals)

	return c.JSON(goals)
}

func GetActiveGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var goals []models.Goal
	database.DB.Where("user_id = ? AND status = ?", userID, models.GoalActive).
		Order("created_at DESC").
		Find(&goals)

	return c.JSON(fiber.Map{
		"activeGoals": goals,
		"totalActive": len(goals),
	})
}

func GetGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.Preload("User").First(&goal, "id = ?", goalID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	// Private goals are visible to their owner and active buddies only.
	if !goal.IsPublic && goal.UserID != userID && !isGoalParticipant(goalID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	return c.JSON(fiber.Map{
		"goal":               goal,
		"daysRemaining":      goal.DaysRemaining(),
		"progressPercentage": goal.ProgressPercentage(),
		"isOverdue":          goal.IsOverdue(),
	})
}

func UpdateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	var req models.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Goal title must be 1-200 characters",
			})
		}
		goal.Title = title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.Difficulty != nil {
		if d := models.Difficulty(strings.ToUpper(*req.Difficulty)); d.Rank() >= 0 {
			goal.Difficulty = d
		}
	}
	if req.Status != nil {
		goal.Status = models.GoalStatus(strings.ToUpper(*req.Status))
	}
	if req.TargetDate != nil {
		targetDate, err := time.Parse("2006-01-02", *req.TargetDate)
		if err != nil || !targetDate.After(goal.StartDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Target date must be a valid date after the start date",
			})
		}
		goal.TargetDate = targetDate
	}
	if req.IsPublic != nil {
		goal.IsPublic = *req.IsPublic
	}
	if req.MaxBuddies != nil && *req.MaxBuddies >= 1 {
		goal.MaxBuddies = *req.MaxBuddies
	}
	if req.Location != nil {
		goal.Location = *req.Location
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update goal",
		})
	}

	return c.JSON(goal)
}

func DeleteGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	result := database.DB.Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.Goal{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Goal deleted successfully"})
}

// UpdateProgress clamps the new value to 0-100 and auto-completes the
// goal at 100.
func UpdateProgress(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	var req models.UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil || req.Progress == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Progress value is required",
		})
	}

	progress := *req.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	goal.CurrentProgress = progress

	if progress >= 100 && goal.Status == models.GoalActive {
		now := time.Now()
		goal.Status = models.GoalCompleted
		goal.CompletedAt = &now
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update progress",
		})
	}

	return c.JSON(fiber.Map{
		"goal":        goal,
		"isCompleted": goal.Status == models.GoalCompleted,
	})
}

func GetGoalCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories": models.Categories,
		"types": []models.GoalType{
			models.TypeHabit, models.TypeProject, models.TypeChallenge,
			models.TypeLearning, models.TypeEvent,
		},
		"difficulties": []models.Difficulty{
			models.DifficultyEasy, models.DifficultyMedium,
			models.DifficultyHard, models.DifficultyExpert,
		},
		"statuses": []models.GoalStatus{
			models.GoalActive, models.GoalCompleted,
			models.GoalPaused, models.GoalCancelled,
		},
	})
}

// isGoalParticipant checks whether a user is the goal owner or holds an
// ACTIVE relationship on it.
func isGoalParticipant(goalID, userID uuid.UUID) bool {
	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err == nil {
		return true
	}
	var rel models.BuddyRelationship
	return database.DB.
		Where("goal_id = ? AND (owner_id = ? OR buddy_id = ?) AND status = ?",
			goalID, userID, userID, models.RelationshipActive).
		First(&rel).Error == nil
}
