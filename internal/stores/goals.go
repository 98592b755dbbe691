package stores

import (
	"errors"

	"github.com/casey/buddyup-api/internal/matching"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goals is the gorm-backed matching.GoalStore.
type Goals struct {
	db *gorm.DB
}

func NewGoals(db *gorm.DB) *Goals {
	return &Goals{db: db}
}

func (s *Goals) GetGoal(id uuid.UUID) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (s *Goals) ActiveGoalsByUser(userID uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.
		Where("user_id = ? AND status = ?", userID, models.GoalActive).
		Order("created_at ASC").
		Find(&goals).Error
	return goals, err
}

// freeCapacity filters to goals whose ACTIVE buddy count is below
// max_buddies.
const freeCapacity = "(SELECT COUNT(*) FROM buddy_relationships br " +
	"WHERE br.goal_id = goals.id AND br.status = 'ACTIVE' AND br.deleted_at IS NULL) < max_buddies"

func (s *Goals) AvailableForMatching(requester uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.
		Where("is_public = ? AND status = ? AND user_id != ?", true, models.GoalActive, requester).
		Where(freeCapacity).
		Order("created_at ASC").
		Find(&goals).Error
	return goals, err
}

func (s *Goals) AvailableByCategory(category models.GoalCategory, requester uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.
		Where("is_public = ? AND status = ? AND category = ? AND user_id != ?",
			true, models.GoalActive, category, requester).
		Where(freeCapacity).
		Order("created_at ASC").
		Find(&goals).Error
	return goals, err
}
