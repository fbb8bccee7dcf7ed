package nutrition

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nutritrack-backend/pkg/db/models"
)

// Repository reads goals, meal plans and progress for one user at a time.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a nutrition repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountGoals returns how many goal records the user has.
func (r *Repository) CountGoals(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Goal{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// HasMealPlan reports whether the user has at least one meal plan.
func (r *Repository) HasMealPlan(ctx context.Context, userID uuid.UUID) (bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.MealPlan{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// LatestMealPlan returns the most recently created plan with its meals in order,
// or nil when the user has none.
func (r *Repository) LatestMealPlan(ctx context.Context, userID uuid.UUID) (*MealPlan, error) {
	var plan models.MealPlan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Meals", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Take(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mealPlanFromModel(plan), nil
}

// TodayProgress returns the progress row for day (YYYY-MM-DD), or nil when nothing was logged.
func (r *Repository) TodayProgress(ctx context.Context, userID uuid.UUID, day string) (*Progress, error) {
	var row models.NutritionProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return progressFromModel(row), nil
}

func mealPlanFromModel(m models.MealPlan) *MealPlan {
	plan := &MealPlan{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		Meals:     make([]Meal, 0, len(m.Meals)),
	}
	for _, meal := range m.Meals {
		entry := Meal{Name: meal.Name, Foods: []string(meal.Foods)}
		if meal.Time != nil {
			entry.Time = *meal.Time
		}
		plan.Meals = append(plan.Meals, entry)
	}
	return plan
}

func progressFromModel(m models.NutritionProgress) *Progress {
	return &Progress{
		Day:      m.Day,
		Calories: Macro{Consumed: m.CaloriesConsumed, Goal: m.CaloriesGoal},
		Protein:  Macro{Consumed: m.ProteinConsumed, Goal: m.ProteinGoal},
		Carbs:    Macro{Consumed: m.CarbsConsumed, Goal: m.CarbsGoal},
		Fat:      Macro{Consumed: m.FatConsumed, Goal: m.FatGoal},
	}
}
