package matching

import (
	"time"

	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
)

// GoalStore is the engine's read-only view of persisted goals.
type GoalStore interface {
	// GetGoal returns ErrNotFound when no goal exists with the given ID.
	GetGoal(id uuid.UUID) (*models.Goal, error)
	ActiveGoalsByUser(userID uuid.UUID) ([]models.Goal, error)
	// AvailableForMatching returns public ACTIVE goals not owned by the
	// requester that still have free buddy capacity.
	AvailableForMatching(requester uuid.UUID) ([]models.Goal, error)
	AvailableByCategory(category models.GoalCategory, requester uuid.UUID) ([]models.Goal, error)
}

// RelationshipStore persists buddy relationships. It is the contended
// resource: every mutating call happens inside the per-goal lock held by
// the lifecycle.
type RelationshipStore interface {
	Insert(r *models.BuddyRelationship) error
	Update(r *models.BuddyRelationship) error
	Delete(r *models.BuddyRelationship) error
	// FindByID returns ErrNotFound when the relationship does not exist.
	FindByID(id uuid.UUID) (*models.BuddyRelationship, error)
	CountActiveByGoal(goalID uuid.UUID) (int64, error)
	// FindExisting returns (nil, nil) when the user has no relationship
	// on the goal in any of the given statuses.
	FindExisting(goalID, userID uuid.UUID, statuses []models.RelationshipStatus) (*models.BuddyRelationship, error)
	FindPendingForUser(userID uuid.UUID) ([]models.BuddyRelationship, error)
	FindActiveForUser(userID uuid.UUID) ([]models.BuddyRelationship, error)
	// FindActiveBetween returns the ACTIVE relationship on goalID that
	// links the two users in either role, or (nil, nil).
	FindActiveBetween(goalID, userA, userB uuid.UUID) (*models.BuddyRelationship, error)
}

// CheckInStore persists daily check-ins. Append-mostly: rows are created
// by their owner and mutated only to add buddy validation.
type CheckInStore interface {
	// FindByID returns ErrNotFound when the check-in does not exist.
	FindByID(id uuid.UUID) (*models.CheckIn, error)
	Update(ci *models.CheckIn) error
	// FindRecent returns all check-ins by the user dated since or later,
	// newest first.
	FindRecent(userID uuid.UUID, since time.Time) ([]models.CheckIn, error)
	// FindByUserGoalDate returns (nil, nil) when the user has no
	// check-in on the goal for that calendar day.
	FindByUserGoalDate(userID, goalID uuid.UUID, date time.Time) (*models.CheckIn, error)
	// FindCompletedDesc returns the user's completed check-ins on the
	// goal, newest first. Feeds the streak walk.
	FindCompletedDesc(userID, goalID uuid.UUID) ([]models.CheckIn, error)
	HasCheckedInOn(userID uuid.UUID, date time.Time) (bool, error)
	// FindNeedingValidation returns partners' unvalidated check-ins on
	// goals where the buddy holds an ACTIVE relationship, dated since or
	// later.
	FindNeedingValidation(buddyID uuid.UUID, since time.Time) ([]models.CheckIn, error)
}
