package handlers

import (
	"github.com/casey/buddyup-api/internal/matching"
	"github.com/casey/buddyup-api/internal/stores"
	"gorm.io/gorm"
)

// Engine services shared by the handlers, wired once at boot.
var (
	goalStore    *stores.Goals
	relStore     *stores.Relationships
	checkInStore *stores.CheckIns

	lifecycle  *matching.Lifecycle
	scorer     *matching.Scorer
	validation *matching.Validation
)

// Init wires the matching engine over the application database. Must be
// called before any route is served.
func Init(db *gorm.DB) {
	goalStore = stores.NewGoals(db)
	relStore = stores.NewRelationships(db)
	checkInStore = stores.NewCheckIns(db)

	scorer = matching.NewScorer(goalStore, checkInStore)
	lifecycle = matching.NewLifecycle(goalStore, relStore, scorer)
	validation = matching.NewValidation(checkInStore, relStore, lifecycle)
}
