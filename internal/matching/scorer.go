package matching

import (
	"time"

	"github.com/casey/buddyup-api/internal/models"
	"github.com/google/uuid"
)

// DifficultyPreference derives the difficulty a requester is likely
// comfortable with. Pluggable so a richer preference model can replace
// the first-active-goal heuristic without touching the lifecycle.
type DifficultyPreference interface {
	Preferred(requester uuid.UUID) (models.Difficulty, error)
}

// FirstActiveGoalPreference uses the difficulty of the requester's first
// active goal, falling back to MEDIUM when they have none.
type FirstActiveGoalPreference struct {
	Goals GoalStore
}

func (p *FirstActiveGoalPreference) Preferred(requester uuid.UUID) (models.Difficulty, error) {
	goals, err := p.Goals.ActiveGoalsByUser(requester)
	if err != nil {
		return "", err
	}
	if len(goals) == 0 {
		return models.DifficultyMedium, nil
	}
	return goals[0].Difficulty, nil
}

// Scorer computes the 0-100 compatibility score between a requester and
// a candidate goal. Pure reads; no side effects.
type Scorer struct {
	goals    GoalStore
	checkIns CheckInStore
	pref     DifficultyPreference
}

func NewScorer(goals GoalStore, checkIns CheckInStore) *Scorer {
	return &Scorer{
		goals:    goals,
		checkIns: checkIns,
		pref:     &FirstActiveGoalPreference{Goals: goals},
	}
}

// WithPreference swaps the difficulty-preference strategy.
func (s *Scorer) WithPreference(pref DifficultyPreference) *Scorer {
	s.pref = pref
	return s
}

// Score is additive and capped: category match 30, difficulty alignment
// up to 25, timeline up to 25, location presence 20, activity up to 15.
func (s *Scorer) Score(requester uuid.UUID, goal *models.Goal) (int, error) {
	score := 0

	userGoals, err := s.goals.ActiveGoalsByUser(requester)
	if err != nil {
		return 0, err
	}
	for _, g := range userGoals {
		if g.Category == goal.Category {
			score += 30
			break
		}
	}

	pref, err := s.pref.Preferred(requester)
	if err != nil {
		return 0, err
	}
	switch {
	case pref == goal.Difficulty:
		score += 25
	case abs(pref.Rank()-goal.Difficulty.Rank()) == 1:
		score += 15
	}

	score += timelineScore(goal)

	if goal.RequiresLocation && goal.Location != "" {
		// Presence-only check; no geo-distance.
		score += 20
	}

	activity, err := s.ActivityCompatibility(requester, goal.UserID)
	if err != nil {
		return 0, err
	}
	score += activity

	return clamp(score, 0, 100), nil
}

func timelineScore(goal *models.Goal) int {
	score := 0
	daysRemaining := daysFromToday(goal.TargetDate)
	if daysRemaining >= 7 && daysRemaining <= 90 {
		score += 15 // one week to three months out
	} else if daysRemaining >= 1 && daysRemaining <= 180 {
		score += 10
	}
	if daysFromToday(goal.StartDate) <= 7 {
		score += 10 // starting soon
	}
	return score
}

// ActivityCompatibility compares the two users' check-in counts over the
// trailing seven days: 15 when within one of each other, 10 within
// three, 5 otherwise.
func (s *Scorer) ActivityCompatibility(userA, userB uuid.UUID) (int, error) {
	since := models.DateOnly(time.Now()).AddDate(0, 0, -7)

	aCheckIns, err := s.checkIns.FindRecent(userA, since)
	if err != nil {
		return 0, err
	}
	bCheckIns, err := s.checkIns.FindRecent(userB, since)
	if err != nil {
		return 0, err
	}

	diff := abs(len(aCheckIns) - len(bCheckIns))
	switch {
	case diff <= 1:
		return 15, nil
	case diff <= 3:
		return 10, nil
	default:
		return 5, nil
	}
}

// daysFromToday counts whole calendar days from today to t; negative
// when t is in the past.
func daysFromToday(t time.Time) int {
	today := models.DateOnly(time.Now())
	return int(models.DateOnly(t).Sub(today).Hours() / 24)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
