package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nutritrack-backend/pkg/enums"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
)

const trackFoodMessage = "Track your food today to meet your nutrition goals!"

// GoalCheck adds the static goal reminder when the user has goals and no goal
// notification exists today. It is independent of the Deriver's goal branch.
func (d *Deriver) GoalCheck(ctx context.Context, userID uuid.UUID, known Known, submit SubmitFunc) error {
	ctx = d.logg.WithField(ctx, "pass", metrics.PassFetch)
	start := time.Now()
	err := d.goalCheck(ctx, userID, known, submit)
	d.metrics.ObservePass(metrics.PassFetch, time.Since(start), err)
	if err != nil {
		d.logg.Error(ctx, "goal check failed", err)
	}
	return err
}

func (d *Deriver) goalCheck(ctx context.Context, userID uuid.UUID, known Known, submit SubmitFunc) error {
	count, err := d.reader.CountGoals(ctx, userID)
	if err != nil {
		return fmt.Errorf("counting goals: %w", err)
	}
	if count < 1 {
		return nil
	}
	now := d.now().In(d.loc)
	if known.HasTypeOn(enums.NotificationTypeGoal, now) {
		return nil
	}
	submit(ctx, Candidate{
		ID:      GoalReminderID(now),
		Type:    enums.NotificationTypeGoal,
		Message: trackFoodMessage,
		Time:    now.Format(displayTimeLayout),
	})
	return nil
}
