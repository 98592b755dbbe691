package stores

import (
	"errors"
	"time"

	"github.com/casey/buddyup-api/internal/matching"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckIns is the gorm-backed matching.CheckInStore.
type CheckIns struct {
	db *gorm.DB
}

func NewCheckIns(db *gorm.DB) *CheckIns {
	return &CheckIns{db: db}
}

func (s *CheckIns) Insert(ci *models.CheckIn) error {
	return s.db.Create(ci).Error
}

func (s *CheckIns) Update(ci *models.CheckIn) error {
	return s.db.Save(ci).Error
}

func (s *CheckIns) FindByID(id uuid.UUID) (*models.CheckIn, error) {
	var ci models.CheckIn
	if err := s.db.First(&ci, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrNotFound
		}
		return nil, err
	}
	return &ci, nil
}

func (s *CheckIns) FindRecent(userID uuid.UUID, since time.Time) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := s.db.
		Where("user_id = ? AND check_in_date >= ?", userID, since).
		Order("check_in_date DESC").
		Find(&checkIns).Error
	return checkIns, err
}

func (s *CheckIns) FindByUserGoalDate(userID, goalID uuid.UUID, date time.Time) (*models.CheckIn, error) {
	var ci models.CheckIn
	err := s.db.
		Where("user_id = ? AND goal_id = ? AND check_in_date = ?", userID, goalID, models.DateOnly(date)).
		First(&ci).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ci, nil
}

func (s *CheckIns) FindByUserGoal(userID, goalID uuid.UUID) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := s.db.
		Where("user_id = ? AND goal_id = ?", userID, goalID).
		Order("check_in_date DESC").
		Find(&checkIns).Error
	return checkIns, err
}

func (s *CheckIns) FindCompletedDesc(userID, goalID uuid.UUID) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := s.db.
		Where("user_id = ? AND goal_id = ? AND completed = ?", userID, goalID, true).
		Order("check_in_date DESC").
		Find(&checkIns).Error
	return checkIns, err
}

func (s *CheckIns) HasCheckedInOn(userID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&models.CheckIn{}).
		Where("user_id = ? AND check_in_date = ?", userID, models.DateOnly(date)).
		Count(&count).Error
	return count > 0, err
}

func (s *CheckIns) FindNeedingValidation(buddyID uuid.UUID, since time.Time) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := s.db.
		Distinct("check_ins.*").
		Joins("JOIN buddy_relationships br ON br.goal_id = check_ins.goal_id AND br.deleted_at IS NULL").
		Where("(br.owner_id = ? OR br.buddy_id = ?) AND br.status = ?", buddyID, buddyID, models.RelationshipActive).
		Where("check_ins.user_id != ? AND check_ins.buddy_validated = ? AND check_ins.check_in_date >= ?",
			buddyID, false, since).
		Order("check_ins.created_at DESC").
		Preload("Goal").
		Preload("User").
		Find(&checkIns).Error
	return checkIns, err
}
