package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalCategory string

const (
	CategoryFitness   GoalCategory = "FITNESS"
	CategoryEducation GoalCategory = "EDUCATION"
	CategoryHobby     GoalCategory = "HOBBY"
	CategoryCareer    GoalCategory = "CAREER"
	CategoryHealth    GoalCategory = "HEALTH"
	CategorySocial    GoalCategory = "SOCIAL"
	CategoryCreative  GoalCategory = "CREATIVE"
	CategorySpiritual GoalCategory = "SPIRITUAL"
	CategoryOther     GoalCategory = "OTHER"
)

// Categories lists every valid goal category, in display order.
var Categories = []GoalCategory{
	CategoryFitness, CategoryEducation, CategoryHobby, CategoryCareer,
	CategoryHealth, CategorySocial, CategoryCreative, CategorySpiritual,
	CategoryOther,
}

func (c GoalCategory) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type GoalType string

const (
	TypeHabit     GoalType = "HABIT"
	TypeProject   GoalType = "PROJECT"
	TypeChallenge GoalType = "CHALLENGE"
	TypeLearning  GoalType = "LEARNING"
	TypeEvent     GoalType = "EVENT"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	DifficultyExpert Difficulty = "EXPERT"
)

var difficultyRank = map[Difficulty]int{
	DifficultyEasy:   0,
	DifficultyMedium: 1,
	DifficultyHard:   2,
	DifficultyExpert: 3,
}

// Rank returns the position of d in the EASY..EXPERT ordering, or -1
// for an unknown value.
func (d Difficulty) Rank() int {
	if r, ok := difficultyRank[d]; ok {
		return r
	}
	return -1
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalPaused    GoalStatus = "PAUSED"
	GoalCancelled GoalStatus = "CANCELLED"
)

type Goal struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description"`
	Category         GoalCategory   `json:"category" gorm:"not null"`
	Type             GoalType       `json:"type" gorm:"not null;default:'HABIT'"`
	Difficulty       Difficulty     `json:"difficulty" gorm:"not null;default:'MEDIUM'"`
	Status           GoalStatus     `json:"status" gorm:"not null;default:'ACTIVE'"`
	StartDate        time.Time      `json:"startDate" gorm:"not null"`
	TargetDate       time.Time      `json:"targetDate" gorm:"not null"`
	TargetValue      int            `json:"targetValue"`
	TargetUnit       string         `json:"targetUnit"` // "workouts", "pages", "minutes", ...
	CurrentProgress  int            `json:"currentProgress" gorm:"default:0"`
	IsPublic         bool           `json:"isPublic" gorm:"default:true"`
	MaxBuddies       int            `json:"maxBuddies" gorm:"default:1"`
	RequiresLocation bool           `json:"requiresLocation" gorm:"default:false"`
	Location         string         `json:"location"`
	CompletedAt      *time.Time     `json:"completedAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (g *Goal) DaysRemaining() int {
	return int(time.Until(g.TargetDate).Hours() / 24)
}

func (g *Goal) ProgressPercentage() float64 {
	if g.TargetValue == 0 {
		return 0
	}
	pct := float64(g.CurrentProgress) / float64(g.TargetValue) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

func (g *Goal) IsOverdue() bool {
	return time.Now().After(g.TargetDate) && g.Status == GoalActive
}

// Goal DTOs
type CreateGoalRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Type             string `json:"type"`
	Difficulty       string `json:"difficulty"`
	StartDate        string `json:"startDate"`  // YYYY-MM-DD
	TargetDate       string `json:"targetDate"` // YYYY-MM-DD
	TargetValue      int    `json:"targetValue"`
	TargetUnit       string `json:"targetUnit"`
	IsPublic         *bool  `json:"isPublic"`
	MaxBuddies       int    `json:"maxBuddies"`
	RequiresLocation bool   `json:"requiresLocation"`
	Location         string `json:"location"`
}

type UpdateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Difficulty  *string `json:"difficulty"`
	Status      *string `json:"status"`
	TargetDate  *string `json:"targetDate"`
	IsPublic    *bool   `json:"isPublic"`
	MaxBuddies  *int    `json:"maxBuddies"`
	Location    *string `json:"location"`
}

type UpdateProgressRequest struct {
	Progress *int `json:"progress"`
}
