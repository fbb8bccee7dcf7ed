// Package nutrition reads the goal, meal plan and daily progress records owned by the
// diet tracker. The notification engine consumes them read-only.
package nutrition

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Meal is one entry of a meal plan.
type Meal struct {
	Name  string
	Time  string
	Foods []string
}

// Matches reports whether the meal name mentions keyword, ignoring case.
func (m Meal) Matches(keyword string) bool {
	return strings.Contains(strings.ToLower(m.Name), strings.ToLower(keyword))
}

// MealPlan is the ordered meal list of a user's most recent plan.
type MealPlan struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	Meals     []Meal
}

// Macro is a consumed/goal pair for one nutrient.
type Macro struct {
	Consumed float64
	Goal     float64
}

// Progress is a user's nutrition ledger for one day.
type Progress struct {
	Day      string
	Calories Macro
	Protein  Macro
	Carbs    Macro
	Fat      Macro
}
