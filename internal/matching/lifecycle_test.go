package matching_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/casey/buddyup-api/internal/matching"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBuddyship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RelationshipPending, rel.Status)
	assert.Equal(t, owner, rel.OwnerID)
	assert.Equal(t, requester, rel.BuddyID)
	assert.GreaterOrEqual(t, rel.CompatibilityScore, 0)
	assert.LessOrEqual(t, rel.CompatibilityScore, 100)
}

func TestRequestOwnGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	_, err := env.lifecycle.RequestBuddyship(ctx, owner, goal.ID)
	assert.ErrorIs(t, err, matching.ErrInvalidState)
}

func TestRequestUnknownGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	requester := seedUser(t, env, "requester@test.dev")

	_, err := env.lifecycle.RequestBuddyship(ctx, requester, uuid.New())
	assert.ErrorIs(t, err, matching.ErrNotFound)
}

func TestDuplicateRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner, MaxBuddies: 3}
	seedGoal(t, env, &goal)

	_, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	assert.ErrorIs(t, err, matching.ErrDuplicateRelationship)
}

func TestRequestWhenGoalIsFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	first := seedUser(t, env, "first@test.dev")
	second := seedUser(t, env, "second@test.dev")

	goal := models.Goal{UserID: owner, MaxBuddies: 1}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, first, goal.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.RequestBuddyship(ctx, second, goal.ID)
	assert.ErrorIs(t, err, matching.ErrCapacityExceeded)
}

func TestAcceptBuddyRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	accepted, err := env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipActive, accepted.Status)
	assert.NotNil(t, accepted.StartedAt)

	// The stamped score never moves after the request.
	assert.Equal(t, rel.CompatibilityScore, accepted.CompatibilityScore)
}

func TestAcceptByNonOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")
	outsider := seedUser(t, env, "outsider@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, outsider, rel.ID)
	assert.ErrorIs(t, err, matching.ErrForbidden)

	// The requester cannot accept their own request either.
	_, err = env.lifecycle.AcceptBuddyRequest(ctx, requester, rel.ID)
	assert.ErrorIs(t, err, matching.ErrForbidden)
}

func TestAcceptTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	assert.ErrorIs(t, err, matching.ErrInvalidState)
}

func TestRejectDeletesTheRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	require.NoError(t, env.lifecycle.RejectBuddyRequest(ctx, owner, rel.ID))

	_, err = env.rels.FindByID(rel.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	// A rejected requester may ask again.
	_, err = env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	assert.NoError(t, err)
}

func TestRejectByNonOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	err = env.lifecycle.RejectBuddyRequest(ctx, requester, rel.ID)
	assert.ErrorIs(t, err, matching.ErrForbidden)
}

func TestEndRelationship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	require.NoError(t, err)

	// Either side may end it; here the buddy does.
	ended, err := env.lifecycle.EndRelationship(ctx, requester, rel.ID, "schedules diverged")
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipEnded, ended.Status)
	assert.NotNil(t, ended.EndedAt)
	assert.Equal(t, "schedules diverged", ended.Notes)

	_, err = env.lifecycle.EndRelationship(ctx, owner, rel.ID, "")
	assert.ErrorIs(t, err, matching.ErrInvalidState)
}

func TestEndByOutsider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")
	outsider := seedUser(t, env, "outsider@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.EndRelationship(ctx, outsider, rel.ID, "")
	assert.ErrorIs(t, err, matching.ErrForbidden)
}

func TestEndingFreesACapacitySlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	first := seedUser(t, env, "first@test.dev")
	second := seedUser(t, env, "second@test.dev")

	goal := models.Goal{UserID: owner, MaxBuddies: 1}
	seedGoal(t, env, &goal)

	firstRel, err := env.lifecycle.RequestBuddyship(ctx, first, goal.ID)
	require.NoError(t, err)
	secondRel, err := env.lifecycle.RequestBuddyship(ctx, second, goal.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, firstRel.ID)
	require.NoError(t, err)

	// The slot is taken, so the second pending request cannot activate.
	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, secondRel.ID)
	assert.ErrorIs(t, err, matching.ErrCapacityExceeded)

	_, err = env.lifecycle.EndRelationship(ctx, first, firstRel.ID, "")
	require.NoError(t, err)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, secondRel.ID)
	assert.NoError(t, err)
}

func TestConcurrentAcceptsNeverExceedCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	first := seedUser(t, env, "first@test.dev")
	second := seedUser(t, env, "second@test.dev")

	goal := models.Goal{UserID: owner, MaxBuddies: 1}
	seedGoal(t, env, &goal)

	firstRel, err := env.lifecycle.RequestBuddyship(ctx, first, goal.ID)
	require.NoError(t, err)
	secondRel, err := env.lifecycle.RequestBuddyship(ctx, second, goal.ID)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, relID := range []uuid.UUID{firstRel.ID, secondRel.ID} {
		go func(i int, relID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = env.lifecycle.AcceptBuddyRequest(ctx, owner, relID)
		}(i, relID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, matching.ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 1, succeeded)

	active, err := env.rels.CountActiveByGoal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

// gatedRelationshipStore lets a test park a store write at a chosen
// point while other goroutines run.
type gatedRelationshipStore struct {
	matching.RelationshipStore
	gate func(r *models.BuddyRelationship)
}

func (s *gatedRelationshipStore) Update(r *models.BuddyRelationship) error {
	if s.gate != nil {
		s.gate(r)
	}
	return s.RelationshipStore.Update(r)
}

func TestInteractionWriteHoldsTheGoalLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	first := seedUser(t, env, "first@test.dev")
	second := seedUser(t, env, "second@test.dev")

	goal := models.Goal{UserID: owner, MaxBuddies: 1}
	seedGoal(t, env, &goal)

	// Park the interaction bump (the only update with a counter > 0)
	// mid-flight, then try to end the relationship underneath it.
	entered := make(chan struct{})
	resume := make(chan struct{})
	var once sync.Once
	gated := &gatedRelationshipStore{
		RelationshipStore: env.rels,
		gate: func(r *models.BuddyRelationship) {
			if r.InteractionCount > 0 {
				once.Do(func() {
					close(entered)
					<-resume
				})
			}
		},
	}
	lifecycle := matching.NewLifecycle(env.goals, gated, env.scorer)

	firstRel, err := lifecycle.RequestBuddyship(ctx, first, goal.ID)
	require.NoError(t, err)
	secondRel, err := lifecycle.RequestBuddyship(ctx, second, goal.ID)
	require.NoError(t, err)
	_, err = lifecycle.AcceptBuddyRequest(ctx, owner, firstRel.ID)
	require.NoError(t, err)

	recorded := make(chan error, 1)
	go func() {
		_, err := lifecycle.RecordInteraction(ctx, firstRel.ID)
		recorded <- err
	}()
	<-entered

	endDone := make(chan error, 1)
	go func() {
		_, err := lifecycle.EndRelationship(ctx, first, firstRel.ID, "")
		endDone <- err
	}()

	// The transition must queue behind the in-flight interaction write.
	select {
	case <-endDone:
		t.Fatal("relationship ended while an interaction write held the goal lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(resume)
	require.NoError(t, <-recorded)
	require.NoError(t, <-endDone)

	// The freed slot goes to the second buddy; the stale interaction row
	// must not have resurrected the ended pairing.
	_, err = lifecycle.AcceptBuddyRequest(ctx, owner, secondRel.ID)
	require.NoError(t, err)

	ended, err := env.rels.FindByID(firstRel.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipEnded, ended.Status)
	assert.Equal(t, 1, ended.InteractionCount)

	active, err := env.rels.CountActiveByGoal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestConcurrentInteractionsAllCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	require.NoError(t, err)

	errs := make([]error, 4)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.lifecycle.RecordInteraction(ctx, rel.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	got, err := env.rels.FindByID(rel.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.InteractionCount)
}

func TestRecordInteraction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	requester := seedUser(t, env, "requester@test.dev")

	goal := models.Goal{UserID: owner}
	seedGoal(t, env, &goal)

	rel, err := env.lifecycle.RequestBuddyship(ctx, requester, goal.ID)
	require.NoError(t, err)

	// Pending relationships do not accumulate interactions.
	_, err = env.lifecycle.RecordInteraction(ctx, rel.ID)
	assert.ErrorIs(t, err, matching.ErrInvalidState)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, rel.ID)
	require.NoError(t, err)

	bumped, err := env.lifecycle.RecordInteraction(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bumped.InteractionCount)
	assert.NotNil(t, bumped.LastInteraction)
}

func TestPendingAndActiveListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := seedUser(t, env, "owner@test.dev")
	first := seedUser(t, env, "first@test.dev")
	second := seedUser(t, env, "second@test.dev")

	goal := models.Goal{UserID: owner, MaxBuddies: 2}
	seedGoal(t, env, &goal)

	firstRel, err := env.lifecycle.RequestBuddyship(ctx, first, goal.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.RequestBuddyship(ctx, second, goal.ID)
	require.NoError(t, err)

	pending, err := env.lifecycle.PendingRequests(owner)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = env.lifecycle.AcceptBuddyRequest(ctx, owner, firstRel.ID)
	require.NoError(t, err)

	pending, err = env.lifecycle.PendingRequests(owner)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	ownerActive, err := env.lifecycle.ActiveRelationships(owner)
	require.NoError(t, err)
	assert.Len(t, ownerActive, 1)

	buddyActive, err := env.lifecycle.ActiveRelationships(first)
	require.NoError(t, err)
	assert.Len(t, buddyActive, 1)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)

	requester := seedUser(t, env, "requester@test.dev")
	other := seedUser(t, env, "other@test.dev")

	mine := models.Goal{UserID: requester, Category: models.CategoryFitness}
	seedGoal(t, env, &mine)

	match := models.Goal{UserID: other, Category: models.CategoryFitness}
	seedGoal(t, env, &match)
	offCategory := models.Goal{UserID: other, Category: models.CategoryEducation}
	seedGoal(t, env, &offCategory)

	// Category-filtered because the requester has an active goal.
	recs, err := env.lifecycle.Recommendations(requester)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, match.ID, recs[0].Goal.ID)
	assert.GreaterOrEqual(t, recs[0].Score, 0)
	assert.LessOrEqual(t, recs[0].Score, 100)
}

func TestRecommendationsExcludeFullAndPrivateGoals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	requester := seedUser(t, env, "requester@test.dev")
	other := seedUser(t, env, "other@test.dev")
	buddy := seedUser(t, env, "buddy@test.dev")

	open := models.Goal{UserID: other, Category: models.CategoryFitness}
	seedGoal(t, env, &open)

	full := models.Goal{UserID: other, Category: models.CategoryFitness, MaxBuddies: 1, Title: "Full goal"}
	seedGoal(t, env, &full)
	rel, err := env.lifecycle.RequestBuddyship(ctx, buddy, full.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.AcceptBuddyRequest(ctx, other, rel.ID)
	require.NoError(t, err)

	private := models.Goal{
		UserID:     other,
		Category:   models.CategoryFitness,
		Title:      "Private goal",
		Difficulty: models.DifficultyMedium,
		Status:     models.GoalActive,
		StartDate:  models.DateOnly(time.Now()),
		TargetDate: models.DateOnly(time.Now()).AddDate(0, 0, 30),
		MaxBuddies: 1,
		IsPublic:   false,
	}
	require.NoError(t, env.db.Create(&private).Error)

	recs, err := env.lifecycle.Recommendations(requester)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, open.ID, recs[0].Goal.ID)
}

func TestRecommendationsAreRankedAndCapped(t *testing.T) {
	env := newTestEnv(t)

	requester := seedUser(t, env, "requester@test.dev")
	seedGoal(t, env, &models.Goal{
		UserID:     requester,
		Category:   models.CategoryFitness,
		Difficulty: models.DifficultyHard,
	})

	for i := 0; i < 12; i++ {
		owner := seedUser(t, env, fmt.Sprintf("owner%d@test.dev", i))
		difficulty := models.DifficultyEasy
		if i%2 == 0 {
			difficulty = models.DifficultyHard
		}
		seedGoal(t, env, &models.Goal{
			UserID:     owner,
			Category:   models.CategoryFitness,
			Difficulty: difficulty,
		})
	}

	recs, err := env.lifecycle.Recommendations(requester)
	require.NoError(t, err)
	assert.Len(t, recs, matching.RecommendationLimit)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
}
