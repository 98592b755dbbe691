package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RelationshipStatus string

const (
	RelationshipPending   RelationshipStatus = "PENDING"
	RelationshipActive    RelationshipStatus = "ACTIVE"
	RelationshipCompleted RelationshipStatus = "COMPLETED"
	RelationshipPaused    RelationshipStatus = "PAUSED"
	RelationshipEnded     RelationshipStatus = "ENDED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s RelationshipStatus) Terminal() bool {
	return s == RelationshipCompleted || s == RelationshipEnded
}

// BuddyRelationship pairs a goal owner with a buddy on one goal. The two
// sides carry explicit roles: OwnerID is the accepting authority for the
// goal, BuddyID is the user who requested the pairing.
type BuddyRelationship struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID             uuid.UUID          `json:"goalId" gorm:"type:uuid;index;not null"`
	OwnerID            uuid.UUID          `json:"ownerId" gorm:"type:uuid;index;not null"`
	BuddyID            uuid.UUID          `json:"buddyId" gorm:"type:uuid;index;not null"`
	Status             RelationshipStatus `json:"status" gorm:"not null;default:'PENDING'"`
	CompatibilityScore int                `json:"compatibilityScore"` // 0-100, stamped at request time
	InteractionCount   int                `json:"interactionCount" gorm:"default:0"`
	LastInteraction    *time.Time         `json:"lastInteraction"`
	StartedAt          *time.Time         `json:"startedAt"`
	EndedAt            *time.Time         `json:"endedAt"`
	Notes              string             `json:"notes" gorm:"size:500"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt     `json:"-" gorm:"index"`

	Goal  Goal `json:"goal,omitempty" gorm:"foreignKey:GoalID"`
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Buddy User `json:"buddy,omitempty" gorm:"foreignKey:BuddyID"`
}

func (r *BuddyRelationship) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *BuddyRelationship) IsActive() bool {
	return r.Status == RelationshipActive
}

// Involves reports whether userID is either side of the pairing.
func (r *BuddyRelationship) Involves(userID uuid.UUID) bool {
	return r.OwnerID == userID || r.BuddyID == userID
}

// OtherUser returns the partner of userID, or uuid.Nil when userID is
// not part of the relationship.
func (r *BuddyRelationship) OtherUser(userID uuid.UUID) uuid.UUID {
	switch userID {
	case r.OwnerID:
		return r.BuddyID
	case r.BuddyID:
		return r.OwnerID
	}
	return uuid.Nil
}

// DaysActive counts days between activation (or creation, for pairs that
// never activated) and the end of the relationship or now.
func (r *BuddyRelationship) DaysActive() int {
	start := r.CreatedAt
	if r.StartedAt != nil {
		start = *r.StartedAt
	}
	end := time.Now()
	if r.EndedAt != nil {
		end = *r.EndedAt
	}
	return int(end.Sub(start).Hours() / 24)
}

type EndRelationshipRequest struct {
	Reason string `json:"reason"`
}
