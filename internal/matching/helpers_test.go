package matching_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/casey/buddyup-api/internal/matching"
	"github.com/casey/buddyup-api/internal/models"
	"github.com/casey/buddyup-api/internal/stores"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db         *gorm.DB
	goals      *stores.Goals
	rels       *stores.Relationships
	checkIns   *stores.CheckIns
	scorer     *matching.Scorer
	lifecycle  *matching.Lifecycle
	validation *matching.Validation
}

// newTestEnv opens a named in-memory SQLite database for the test and
// wires the full engine on top of the gorm stores. A single connection
// keeps SQLite serial under concurrent test goroutines.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Goal{},
		&models.BuddyRelationship{},
		&models.CheckIn{},
	))

	goals := stores.NewGoals(db)
	rels := stores.NewRelationships(db)
	checkIns := stores.NewCheckIns(db)
	scorer := matching.NewScorer(goals, checkIns)
	lifecycle := matching.NewLifecycle(goals, rels, scorer)

	return &testEnv{
		db:         db,
		goals:      goals,
		rels:       rels,
		checkIns:   checkIns,
		scorer:     scorer,
		lifecycle:  lifecycle,
		validation: matching.NewValidation(checkIns, rels, lifecycle),
	}
}

func seedUser(t *testing.T, env *testEnv, email string) uuid.UUID {
	t.Helper()
	user := models.User{Email: email, Name: email}
	require.NoError(t, env.db.Create(&user).Error)
	return user.ID
}

// seedGoal fills in sane defaults: an ACTIVE public habit starting today
// with a target a month out and room for one buddy.
func seedGoal(t *testing.T, env *testEnv, goal *models.Goal) uuid.UUID {
	t.Helper()
	if goal.Title == "" {
		goal.Title = "Test goal"
	}
	if goal.Category == "" {
		goal.Category = models.CategoryFitness
	}
	if goal.Type == "" {
		goal.Type = models.TypeHabit
	}
	if goal.Difficulty == "" {
		goal.Difficulty = models.DifficultyMedium
	}
	if goal.Status == "" {
		goal.Status = models.GoalActive
	}
	if goal.StartDate.IsZero() {
		goal.StartDate = models.DateOnly(time.Now())
	}
	if goal.TargetDate.IsZero() {
		goal.TargetDate = models.DateOnly(time.Now()).AddDate(0, 0, 30)
	}
	if goal.MaxBuddies == 0 {
		goal.MaxBuddies = 1
	}
	goal.IsPublic = true
	require.NoError(t, env.db.Create(goal).Error)
	return goal.ID
}

func seedCheckIn(t *testing.T, env *testEnv, userID, goalID uuid.UUID, daysAgo int, completed bool) *models.CheckIn {
	t.Helper()
	ci := models.CheckIn{
		GoalID:      goalID,
		UserID:      userID,
		CheckInDate: models.DateOnly(time.Now()).AddDate(0, 0, -daysAgo),
		Completed:   completed,
	}
	require.NoError(t, env.db.Create(&ci).Error)
	return &ci
}
