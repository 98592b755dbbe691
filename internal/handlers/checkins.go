package handlers

import (
	"time"

	"github.com/casey/buddyup-api/internal/database"
	"github.com/casey/buddyup-api/internal/middleware"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateCheckIn records today's progress on a goal. One check-in per
// (user, goal, day); duplicates are refused before the unique index ever
// fires.
func CreateCheckIn(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ?", goalID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	if !isGoalParticipant(goalID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only check in on goals you participate in",
		})
	}

	var req models.CreateCheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.MotivationLevel != 0 && (req.MotivationLevel < 1 || req.MotivationLevel > 10) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Motivation level must be between 1 and 10",
		})
	}
	if req.DifficultyLevel != 0 && (req.DifficultyLevel < 1 || req.DifficultyLevel > 10) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Difficulty level must be between 1 and 10",
		})
	}

	existing, err := checkInStore.FindByUserGoalDate(userID, goalID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create check-in",
		})
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You already checked in on this goal today",
		})
	}

	checkIn := models.CheckIn{
		GoalID:          goalID,
		UserID:          userID,
		CheckInDate:     models.DateOnly(time.Now()),
		ProgressValue:   req.ProgressValue,
		Notes:           req.Notes,
		Reflection:      req.Reflection,
		MotivationLevel: req.MotivationLevel,
		DifficultyLevel: req.DifficultyLevel,
		Completed:       req.Completed,
	}

	if err := checkInStore.Insert(&checkIn); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create check-in",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(checkIn)
}

// GetCheckIns lists the caller's check-ins on a goal, newest first.
func GetCheckIns(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	checkIns, err := checkInStore.FindByUserGoal(userID, goalID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load check-ins",
		})
	}

	return c.JSON(checkIns)
}

// ValidateCheckIn confirms a partner's check-in. Authorization and state
// checks live in the engine.
func ValidateCheckIn(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	checkInID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid check-in ID",
		})
	}

	checkIn, err := validation.Validate(c.Context(), userID, checkInID)
	if err != nil {
		return engineError(c, err)
	}

	LogActivity(checkIn.GoalID, userID, "checkin_validated", &checkIn.ID, nil)

	var buddy models.User
	database.DB.First(&buddy, userID)
	name := buddy.DisplayName
	if name == "" {
		name = buddy.Name
	}
	CreateNotification(checkIn.UserID, "checkin_validated",
		"Check-in validated!",
		name+" confirmed your check-in",
		map[string]interface{}{"goalId": checkIn.GoalID.String(), "checkInId": checkIn.ID.String()},
	)

	return c.JSON(checkIn)
}

// GetStreak returns the caller's current completed-check-in streak on a
// goal.
func GetStreak(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	streak, err := validation.CurrentStreak(userID, goalID)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(fiber.Map{"currentStreak": streak})
}

// GetCheckedInToday reports whether the caller has checked in on any
// goal today.
func GetCheckedInToday(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	checkedIn, err := validation.HasCheckedInToday(userID)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(fiber.Map{"checkedInToday": checkedIn})
}

// GetPendingValidation lists partners' recent check-ins the caller may
// validate.
func GetPendingValidation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	checkIns, err := validation.NeedingValidation(userID)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(fiber.Map{
		"checkIns": checkIns,
		"total":    len(checkIns),
	})
}
