package handlers

import (
	"github.com/casey/buddyup-api/internal/database"
	"github.com/casey/buddyup-api/internal/middleware"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestBuddy creates a PENDING buddy request on a goal and notifies
// the goal owner.
func RequestBuddy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	rel, err := lifecycle.RequestBuddyship(c.Context(), userID, goalID)
	if err != nil {
		return engineError(c, err)
	}

	LogActivity(goalID, userID, "buddy_requested", &rel.ID, nil)

	var requester models.User
	database.DB.First(&requester, userID)
	name := requester.DisplayName
	if name == "" {
		name = requester.Name
	}
	CreateNotification(rel.OwnerID, "buddy_request",
		"New buddy request!",
		name+" wants to be your accountability buddy",
		map[string]interface{}{"goalId": goalID.String(), "relationshipId": rel.ID.String()},
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Buddy request sent successfully",
		"relationshipId": rel.ID,
		"status":         rel.Status,
		"compatibilityScore": rel.CompatibilityScore,
	})
}

// AcceptBuddy activates a pending request. Only the goal owner may
// accept; capacity is re-checked by the engine.
func AcceptBuddy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	relID, err := uuid.Parse(c.Params("relationshipId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid relationship ID",
		})
	}

	rel, err := lifecycle.AcceptBuddyRequest(c.Context(), userID, relID)
	if err != nil {
		return engineError(c, err)
	}

	LogActivity(rel.GoalID, rel.BuddyID, "buddy_joined", &rel.ID, nil)

	var owner models.User
	database.DB.First(&owner, userID)
	name := owner.DisplayName
	if name == "" {
		name = owner.Name
	}
	CreateNotification(rel.BuddyID, "request_accepted",
		"Buddy request accepted!",
		name+" accepted your buddy request. Time to start achieving goals together!",
		map[string]interface{}{"goalId": rel.GoalID.String(), "relationshipId": rel.ID.String()},
	)

	return c.JSON(fiber.Map{
		"message":      "Buddy request accepted",
		"relationship": rel,
	})
}

// RejectBuddy removes a pending request.
func RejectBuddy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	relID, err := uuid.Parse(c.Params("relationshipId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid relationship ID",
		})
	}

	if err := lifecycle.RejectBuddyRequest(c.Context(), userID, relID); err != nil {
		return engineError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Buddy request rejected"})
}

// EndBuddyRelationship ends an active pairing; either side may do it.
func EndBuddyRelationship(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	relID, err := uuid.Parse(c.Params("relationshipId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid relationship ID",
		})
	}

	var req models.EndRelationshipRequest
	c.BodyParser(&req) // optional body

	rel, err := lifecycle.EndRelationship(c.Context(), userID, relID, req.Reason)
	if err != nil {
		return engineError(c, err)
	}

	LogActivity(rel.GoalID, userID, "relationship_ended", &rel.ID, nil)

	if other := rel.OtherUser(userID); other != uuid.Nil {
		CreateNotification(other, "relationship_ended",
			"Buddy relationship ended",
			"Your accountability buddy ended the relationship",
			map[string]interface{}{"goalId": rel.GoalID.String(), "relationshipId": rel.ID.String()},
		)
	}

	return c.JSON(fiber.Map{"message": "Buddy relationship ended"})
}

// GetMyBuddies lists the caller's active pairings with partner and goal
// details.
func GetMyBuddies(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	rels, err := lifecycle.ActiveRelationships(userID)
	if err != nil {
		return engineError(c, err)
	}

	buddies := make([]fiber.Map, 0, len(rels))
	for i := range rels {
		rel := &rels[i]
		partner := rel.Buddy
		if rel.BuddyID == userID {
			partner = rel.Owner
		}
		buddies = append(buddies, fiber.Map{
			"relationshipId":     rel.ID,
			"buddy":              partner,
			"goal":               rel.Goal,
			"compatibilityScore": rel.CompatibilityScore,
			"daysActive":         rel.DaysActive(),
			"interactionCount":   rel.InteractionCount,
		})
	}

	return c.JSON(fiber.Map{
		"buddies":      buddies,
		"totalBuddies": len(buddies),
	})
}

// GetPendingRequests lists pending requests addressed to the caller as
// goal owner.
func GetPendingRequests(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	rels, err := lifecycle.PendingRequests(userID)
	if err != nil {
		return engineError(c, err)
	}

	requests := make([]fiber.Map, 0, len(rels))
	for i := range rels {
		rel := &rels[i]
		requests = append(requests, fiber.Map{
			"relationshipId":     rel.ID,
			"requester":          rel.Buddy,
			"goal":               rel.Goal,
			"compatibilityScore": rel.CompatibilityScore,
			"requestDate":        rel.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"pendingRequests": requests,
		"totalRequests":   len(requests),
	})
}

// GetRecommendations returns candidate goals ranked by compatibility,
// top 10.
func GetRecommendations(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	recs, err := lifecycle.Recommendations(userID)
	if err != nil {
		return engineError(c, err)
	}

	return c.JSON(fiber.Map{
		"recommendations": recs,
		"totalFound":      len(recs),
	})
}
