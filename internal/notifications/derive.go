package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nutritrack-backend/internal/nutrition"
	"github.com/angelmondragon/nutritrack-backend/pkg/enums"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
)

const (
	createMealPlanMessage = "Create a meal plan to track your nutrition goals better!"
	displayTimeLayout     = "3:04 PM"
)

var proteinNudgeThreshold = decimal.NewFromFloat(0.8)

// Reader is the read-only view of the user's nutrition records.
type Reader interface {
	CountGoals(ctx context.Context, userID uuid.UUID) (int64, error)
	HasMealPlan(ctx context.Context, userID uuid.UUID) (bool, error)
	LatestMealPlan(ctx context.Context, userID uuid.UUID) (*nutrition.MealPlan, error)
	TodayProgress(ctx context.Context, userID uuid.UUID, day string) (*nutrition.Progress, error)
}

// Known answers dedup questions asked before a read is issued.
type Known interface {
	HasID(id string) bool
	HasTypeOn(t enums.NotificationType, at time.Time) bool
}

// SubmitFunc hands a candidate to the store. It returns false when the candidate was
// rejected or the session moved on.
type SubmitFunc func(ctx context.Context, c Candidate) bool

// DeriverParams configure a Deriver.
type DeriverParams struct {
	Reader   Reader
	Logger   *logger.Logger
	Metrics  *metrics.NotificationMetrics
	Location *time.Location
	Now      func() time.Time
}

// Deriver turns time of day and nutrition state into reminder candidates.
type Deriver struct {
	reader  Reader
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
	loc     *time.Location
	now     func() time.Time
}

func NewDeriver(params DeriverParams) (*Deriver, error) {
	if params.Reader == nil {
		return nil, fmt.Errorf("nutrition reader required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Deriver{
		reader:  params.Reader,
		logg:    logg,
		metrics: params.Metrics,
		loc:     loc,
		now:     now,
	}, nil
}

// Derive runs the meal-slot and goal-progress branches. A failure in one branch never
// prevents the other.
func (d *Deriver) Derive(ctx context.Context, userID uuid.UUID, known Known, submit SubmitFunc) {
	d.runBranch(ctx, metrics.PassMeal, func(ctx context.Context) error {
		return d.mealReminder(ctx, userID, known, submit)
	})
	d.runBranch(ctx, metrics.PassGoal, func(ctx context.Context) error {
		return d.goalProgress(ctx, userID, known, submit)
	})
}

func (d *Deriver) runBranch(ctx context.Context, pass string, fn func(context.Context) error) {
	ctx = d.logg.WithField(ctx, "pass", pass)
	start := time.Now()
	err := fn(ctx)
	d.metrics.ObservePass(pass, time.Since(start), err)
	if err != nil {
		d.logg.Error(ctx, "derivation branch failed", err)
	}
}

func (d *Deriver) mealReminder(ctx context.Context, userID uuid.UUID, known Known, submit SubmitFunc) error {
	now := d.now().In(d.loc)
	slot, ok := SlotForHour(now.Hour())
	if !ok {
		return nil
	}
	id := MealReminderID(slot, now)
	if known.HasID(id) {
		return nil
	}

	plan, err := d.reader.LatestMealPlan(ctx, userID)
	candidate := MealCandidate(slot, now, plan)
	submit(ctx, candidate)
	if err != nil {
		return fmt.Errorf("reading latest meal plan: %w", err)
	}
	return nil
}

// MealCandidate composes the reminder for slot from the plan, falling back to the generic
// message when the plan is missing or has no matching meal with foods.
func MealCandidate(slot enums.MealSlot, now time.Time, plan *nutrition.MealPlan) Candidate {
	c := Candidate{
		ID:      MealReminderID(slot, now),
		Type:    enums.NotificationTypeMeal,
		Message: fmt.Sprintf("Don't forget to log your %s!", slot),
		Time:    slot.CanonicalTime(),
	}
	if plan == nil {
		return c
	}
	for _, meal := range plan.Meals {
		if !meal.Matches(slot.String()) {
			continue
		}
		if len(meal.Foods) == 0 {
			return c
		}
		c.Message = fmt.Sprintf("Time for %s! Your plan has %s ready: %s.", slot, meal.Name, strings.Join(meal.Foods, ", "))
		if strings.TrimSpace(meal.Time) != "" {
			c.Time = meal.Time
		}
		return c
	}
	return c
}

func (d *Deriver) goalProgress(ctx context.Context, userID uuid.UUID, known Known, submit SubmitFunc) error {
	now := d.now().In(d.loc)
	if known.HasTypeOn(enums.NotificationTypeGoal, now) {
		return nil
	}

	hasPlan, err := d.reader.HasMealPlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("checking meal plan: %w", err)
	}
	if !hasPlan {
		submit(ctx, Candidate{
			Type:    enums.NotificationTypeGoal,
			Message: createMealPlanMessage,
			Time:    now.Format(displayTimeLayout),
		})
		return nil
	}

	progress, err := d.reader.TodayProgress(ctx, userID, now.Format(dayLayout))
	if err != nil {
		return fmt.Errorf("reading today's progress: %w", err)
	}
	if progress == nil {
		d.logg.Debug(ctx, "no nutrition progress logged today")
		return nil
	}

	remaining, ok := ProteinRemainingPercent(progress.Protein)
	if !ok {
		return nil
	}
	submit(ctx, Candidate{
		Type:    enums.NotificationTypeGoal,
		Message: fmt.Sprintf("You're %s%% away from your protein goal today. Keep it up!", remaining.String()),
		Time:    now.Format(displayTimeLayout),
	})
	return nil
}

// ProteinRemainingPercent returns the whole-number percentage left to the protein goal when
// consumption is below 80% of it. A zero goal never nudges.
func ProteinRemainingPercent(protein nutrition.Macro) (decimal.Decimal, bool) {
	goal := decimal.NewFromFloat(protein.Goal)
	if !goal.IsPositive() {
		return decimal.Zero, false
	}
	ratio := decimal.NewFromFloat(protein.Consumed).Div(goal)
	if !ratio.LessThan(proteinNudgeThreshold) {
		return decimal.Zero, false
	}
	remaining := decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100)).Round(0)
	return remaining, true
}
