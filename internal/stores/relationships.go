package stores

import (
	"errors"

	"github.com/casey/buddyup-api/internal/matching"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Relationships is the gorm-backed matching.RelationshipStore.
type Relationships struct {
	db *gorm.DB
}

func NewRelationships(db *gorm.DB) *Relationships {
	return &Relationships{db: db}
}

func (s *Relationships) Insert(r *models.BuddyRelationship) error {
	return s.db.Create(r).Error
}

func (s *Relationships) Update(r *models.BuddyRelationship) error {
	return s.db.Save(r).Error
}

func (s *Relationships) Delete(r *models.BuddyRelationship) error {
	return s.db.Delete(r).Error
}

func (s *Relationships) FindByID(id uuid.UUID) (*models.BuddyRelationship, error) {
	var rel models.BuddyRelationship
	if err := s.db.First(&rel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrNotFound
		}
		return nil, err
	}
	return &rel, nil
}

func (s *Relationships) CountActiveByGoal(goalID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.BuddyRelationship{}).
		Where("goal_id = ? AND status = ?", goalID, models.RelationshipActive).
		Count(&count).Error
	return count, err
}

func (s *Relationships) FindExisting(goalID, userID uuid.UUID, statuses []models.RelationshipStatus) (*models.BuddyRelationship, error) {
	var rel models.BuddyRelationship
	err := s.db.
		Where("goal_id = ? AND (owner_id = ? OR buddy_id = ?) AND status IN ?", goalID, userID, userID, statuses).
		First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

func (s *Relationships) FindPendingForUser(userID uuid.UUID) ([]models.BuddyRelationship, error) {
	var rels []models.BuddyRelationship
	err := s.db.
		Where("owner_id = ? AND status = ?", userID, models.RelationshipPending).
		Preload("Goal").
		Preload("Buddy").
		Order("created_at DESC").
		Find(&rels).Error
	return rels, err
}

func (s *Relationships) FindActiveForUser(userID uuid.UUID) ([]models.BuddyRelationship, error) {
	var rels []models.BuddyRelationship
	err := s.db.
		Where("(owner_id = ? OR buddy_id = ?) AND status = ?", userID, userID, models.RelationshipActive).
		Preload("Goal").
		Preload("Owner").
		Preload("Buddy").
		Order("created_at DESC").
		Find(&rels).Error
	return rels, err
}

func (s *Relationships) FindActiveBetween(goalID, userA, userB uuid.UUID) (*models.BuddyRelationship, error) {
	var rel models.BuddyRelationship
	err := s.db.
		Where("goal_id = ? AND status = ?", goalID, models.RelationshipActive).
		Where("(owner_id = ? AND buddy_id = ?) OR (owner_id = ? AND buddy_id = ?)", userA, userB, userB, userA).
		First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}
