package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/nutritrack-backend/pkg/db/types"
)

// MealPlan is a generated plan; only the most recent one per user matters to reminders.
type MealPlan struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	Name      string         `gorm:"column:name;type:text;not null"`
	Meals     []MealPlanMeal `gorm:"foreignKey:MealPlanID"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (p *MealPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MealPlanMeal is one ordered entry of a plan ("Breakfast Bowl", "Dinner Special", ...).
type MealPlanMeal struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey"`
	MealPlanID uuid.UUID          `gorm:"column:meal_plan_id;type:uuid;not null;index"`
	Position   int                `gorm:"column:position;not null"`
	Name       string             `gorm:"column:name;type:text;not null"`
	Time       *string            `gorm:"column:time;type:text"`
	Foods      dbtypes.StringList `gorm:"column:foods;type:text"`
}

func (m *MealPlanMeal) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
