package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
)

// DefaultLockWait bounds how long a lifecycle operation waits for its
// goal's lock before giving up with ErrBusy.
const DefaultLockWait = 2 * time.Second

// RecommendationLimit caps the candidate-goal listing.
const RecommendationLimit = 10

// Lifecycle drives buddy relationships through
// request -> accept/reject -> active -> ended, enforcing the
// maxBuddies capacity invariant per goal. All capacity-sensitive
// check-then-act sequences run under a per-goal advisory lock, so two
// concurrent requests against a goal with one free slot cannot both
// succeed.
type Lifecycle struct {
	goals    GoalStore
	rels     RelationshipStore
	scorer   *Scorer
	locks    *goalLocks
	lockWait time.Duration
}

func NewLifecycle(goals GoalStore, rels RelationshipStore, scorer *Scorer) *Lifecycle {
	return &Lifecycle{
		goals:    goals,
		rels:     rels,
		scorer:   scorer,
		locks:    newGoalLocks(),
		lockWait: DefaultLockWait,
	}
}

// RequestBuddyship creates a PENDING relationship from requester to the
// goal's owner, stamped with the compatibility score computed now. The
// score is immutable afterwards.
func (l *Lifecycle) RequestBuddyship(ctx context.Context, requester, goalID uuid.UUID) (*models.BuddyRelationship, error) {
	goal, err := l.goals.GetGoal(goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID == requester {
		return nil, fmt.Errorf("%w: cannot request buddyship on your own goal", ErrInvalidState)
	}

	release, err := l.locks.acquire(ctx, goalID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	active, err := l.rels.CountActiveByGoal(goalID)
	if err != nil {
		return nil, err
	}
	if active >= int64(goal.MaxBuddies) {
		return nil, fmt.Errorf("%w: goal already has %d of %d buddies", ErrCapacityExceeded, active, goal.MaxBuddies)
	}

	existing, err := l.rels.FindExisting(goalID, requester,
		[]models.RelationshipStatus{models.RelationshipPending, models.RelationshipActive})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: you already have a relationship for this goal", ErrDuplicateRelationship)
	}

	score, err := l.scorer.Score(requester, goal)
	if err != nil {
		return nil, err
	}

	rel := &models.BuddyRelationship{
		GoalID:             goalID,
		OwnerID:            goal.UserID,
		BuddyID:            requester,
		Status:             models.RelationshipPending,
		CompatibilityScore: score,
	}
	if err := l.rels.Insert(rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// AcceptBuddyRequest activates a PENDING relationship. Only the goal
// owner may accept, and capacity is re-checked under the goal lock
// because several PENDING requests can coexist past practical capacity.
func (l *Lifecycle) AcceptBuddyRequest(ctx context.Context, actingUser, relationshipID uuid.UUID) (*models.BuddyRelationship, error) {
	rel, err := l.rels.FindByID(relationshipID)
	if err != nil {
		return nil, err
	}
	if rel.OwnerID != actingUser {
		return nil, fmt.Errorf("%w: you can only accept requests for your own goals", ErrForbidden)
	}

	release, err := l.locks.acquire(ctx, rel.GoalID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	// Reload under the lock; the state may have moved while we waited.
	rel, err = l.rels.FindByID(relationshipID)
	if err != nil {
		return nil, err
	}
	if rel.Status != models.RelationshipPending {
		return nil, fmt.Errorf("%w: this buddy request is no longer pending", ErrInvalidState)
	}

	goal, err := l.goals.GetGoal(rel.GoalID)
	if err != nil {
		return nil, err
	}
	active, err := l.rels.CountActiveByGoal(rel.GoalID)
	if err != nil {
		return nil, err
	}
	if active >= int64(goal.MaxBuddies) {
		return nil, fmt.Errorf("%w: goal already has %d of %d buddies", ErrCapacityExceeded, active, goal.MaxBuddies)
	}

	now := time.Now()
	rel.Status = models.RelationshipActive
	rel.StartedAt = &now
	if err := l.rels.Update(rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// RejectBuddyRequest removes a PENDING relationship. No history
// commitment exists yet, so the row is deleted rather than marked ENDED.
func (l *Lifecycle) RejectBuddyRequest(ctx context.Context, actingUser, relationshipID uuid.UUID) error {
	rel, err := l.rels.FindByID(relationshipID)
	if err != nil {
		return err
	}
	if rel.OwnerID != actingUser {
		return fmt.Errorf("%w: you can only reject requests for your own goals", ErrForbidden)
	}
	if rel.Status != models.RelationshipPending {
		return fmt.Errorf("%w: this buddy request is no longer pending", ErrInvalidState)
	}
	return l.rels.Delete(rel)
}

// EndRelationship moves a non-terminal relationship to ENDED. Either
// participant may end it; the optional note is stored with the row.
func (l *Lifecycle) EndRelationship(ctx context.Context, actingUser, relationshipID uuid.UUID, note string) (*models.BuddyRelationship, error) {
	rel, err := l.rels.FindByID(relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.Involves(actingUser) {
		return nil, fmt.Errorf("%w: you are not part of this buddy relationship", ErrForbidden)
	}

	release, err := l.locks.acquire(ctx, rel.GoalID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	rel, err = l.rels.FindByID(relationshipID)
	if err != nil {
		return nil, err
	}
	if rel.Status.Terminal() {
		return nil, fmt.Errorf("%w: relationship already %s", ErrInvalidState, rel.Status)
	}

	now := time.Now()
	rel.Status = models.RelationshipEnded
	rel.EndedAt = &now
	if note != "" {
		rel.Notes = note
	}
	if err := l.rels.Update(rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// RecordInteraction bumps the interaction counter on an ACTIVE
// relationship. Called by the check-in validation flow and any other
// buddy-to-buddy activity. The read-modify-write runs under the goal
// lock like every other relationship mutation, so a stale row can never
// overwrite a concurrent transition.
func (l *Lifecycle) RecordInteraction(ctx context.Context, relationshipID uuid.UUID) (*models.BuddyRelationship, error) {
	rel, err := l.rels.FindByID(relationshipID)
	if err != nil {
		return nil, err
	}

	release, err := l.locks.acquire(ctx, rel.GoalID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	rel, err = l.rels.FindByID(relationshipID)
	if err != nil {
		return nil, err
	}
	return l.bumpInteraction(rel)
}

// bumpInteraction writes the counter update. The caller must hold the
// goal lock for rel.GoalID.
func (l *Lifecycle) bumpInteraction(rel *models.BuddyRelationship) (*models.BuddyRelationship, error) {
	if !rel.IsActive() {
		return nil, fmt.Errorf("%w: relationship is %s, not ACTIVE", ErrInvalidState, rel.Status)
	}
	now := time.Now()
	rel.InteractionCount++
	rel.LastInteraction = &now
	if err := l.rels.Update(rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// ActiveRelationships lists the user's ACTIVE pairings on either side.
func (l *Lifecycle) ActiveRelationships(userID uuid.UUID) ([]models.BuddyRelationship, error) {
	return l.rels.FindActiveForUser(userID)
}

// PendingRequests lists PENDING requests addressed to the user as goal
// owner.
func (l *Lifecycle) PendingRequests(userID uuid.UUID) ([]models.BuddyRelationship, error) {
	return l.rels.FindPendingForUser(userID)
}

// Recommendation pairs a candidate goal with the requester's score for
// it.
type Recommendation struct {
	Goal  models.Goal `json:"goal"`
	Score int         `json:"compatibilityScore"`
}

// Recommendations ranks candidate goals for the requester, descending by
// score (stable for ties), truncated to RecommendationLimit. When the
// requester has active goals, candidates are drawn from their primary
// category.
func (l *Lifecycle) Recommendations(requester uuid.UUID) ([]Recommendation, error) {
	userGoals, err := l.goals.ActiveGoalsByUser(requester)
	if err != nil {
		return nil, err
	}

	var candidates []models.Goal
	if len(userGoals) == 0 {
		candidates, err = l.goals.AvailableForMatching(requester)
	} else {
		candidates, err = l.goals.AvailableByCategory(userGoals[0].Category, requester)
	}
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(candidates))
	for i := range candidates {
		score, err := l.scorer.Score(requester, &candidates[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, Recommendation{Goal: candidates[i], Score: score})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > RecommendationLimit {
		recs = recs[:RecommendationLimit]
	}
	return recs, nil
}
