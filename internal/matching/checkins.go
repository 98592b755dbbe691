package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
)

// validationWindow is how far back the pending-validation feed looks.
const validationWindow = 7

// Validation is the buddy-side confirmation of a partner's check-in,
// plus streak computation. Authorization comes from the relationship
// store: only a user holding an ACTIVE relationship with the check-in's
// owner on the same goal may validate.
type Validation struct {
	checkIns  CheckInStore
	rels      RelationshipStore
	lifecycle *Lifecycle
}

func NewValidation(checkIns CheckInStore, rels RelationshipStore, lifecycle *Lifecycle) *Validation {
	return &Validation{checkIns: checkIns, rels: rels, lifecycle: lifecycle}
}

// Validate marks the check-in as buddy-validated and records an
// interaction on the authorizing relationship. Self-validation is never
// permitted, and a check-in is validated at most once. The relationship
// recheck and both writes happen under the goal lock, so an ending
// relationship cannot strand a half-validated check-in.
func (v *Validation) Validate(ctx context.Context, buddy, checkInID uuid.UUID) (*models.CheckIn, error) {
	ci, err := v.checkIns.FindByID(checkInID)
	if err != nil {
		return nil, err
	}
	if ci.UserID == buddy {
		return nil, fmt.Errorf("%w: you cannot validate your own check-in", ErrInvalidState)
	}

	release, err := v.lifecycle.locks.acquire(ctx, ci.GoalID, v.lifecycle.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	// Reload under the lock; a concurrent validation may have won.
	ci, err = v.checkIns.FindByID(checkInID)
	if err != nil {
		return nil, err
	}
	if ci.BuddyValidated {
		return nil, fmt.Errorf("%w: check-in already validated", ErrInvalidState)
	}

	rel, err := v.rels.FindActiveBetween(ci.GoalID, ci.UserID, buddy)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, fmt.Errorf("%w: no active buddy relationship on this goal", ErrForbidden)
	}

	now := time.Now()
	ci.BuddyValidated = true
	ci.ValidatedByID = &buddy
	ci.ValidatedAt = &now
	if err := v.checkIns.Update(ci); err != nil {
		return nil, err
	}

	if _, err := v.lifecycle.bumpInteraction(rel); err != nil {
		return nil, err
	}
	return ci, nil
}

// CurrentStreak counts consecutive calendar days with a completed
// check-in, walking backward from the most recent one. Any gap ends the
// count.
func (v *Validation) CurrentStreak(userID, goalID uuid.UUID) (int, error) {
	entries, err := v.checkIns.FindCompletedDesc(userID, goalID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	streak := 1
	prev := models.DateOnly(entries[0].CheckInDate)
	for _, e := range entries[1:] {
		day := models.DateOnly(e.CheckInDate)
		switch {
		case day.Equal(prev):
			// duplicate day, keep walking
		case day.Equal(prev.AddDate(0, 0, -1)):
			streak++
			prev = day
		default:
			return streak, nil
		}
	}
	return streak, nil
}

// HasCheckedInToday reports whether the user has any check-in dated
// today, across all goals.
func (v *Validation) HasCheckedInToday(userID uuid.UUID) (bool, error) {
	return v.checkIns.HasCheckedInOn(userID, models.DateOnly(time.Now()))
}

// NeedingValidation lists partners' recent unvalidated check-ins the
// buddy is allowed to confirm.
func (v *Validation) NeedingValidation(buddy uuid.UUID) ([]models.CheckIn, error) {
	since := models.DateOnly(time.Now()).AddDate(0, 0, -validationWindow)
	return v.checkIns.FindNeedingValidation(buddy, since)
}
