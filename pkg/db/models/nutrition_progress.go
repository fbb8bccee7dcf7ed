package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NutritionProgress is the per-day consumed/goal ledger written by meal logging.
type NutritionProgress struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_nutrition_progress_user_day"`
	Day              string    `gorm:"column:day;type:text;not null;uniqueIndex:idx_nutrition_progress_user_day"`
	CaloriesConsumed float64   `gorm:"column:calories_consumed;not null;default:0"`
	CaloriesGoal     float64   `gorm:"column:calories_goal;not null;default:0"`
	ProteinConsumed  float64   `gorm:"column:protein_consumed;not null;default:0"`
	ProteinGoal      float64   `gorm:"column:protein_goal;not null;default:0"`
	CarbsConsumed    float64   `gorm:"column:carbs_consumed;not null;default:0"`
	CarbsGoal        float64   `gorm:"column:carbs_goal;not null;default:0"`
	FatConsumed      float64   `gorm:"column:fat_consumed;not null;default:0"`
	FatGoal          float64   `gorm:"column:fat_goal;not null;default:0"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (NutritionProgress) TableName() string { return "nutrition_progress" }

func (p *NutritionProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
