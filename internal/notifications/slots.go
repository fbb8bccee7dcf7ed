package notifications

import (
	"time"

	"github.com/angelmondragon/nutritrack-backend/pkg/enums"
)

type slotWindow struct {
	slot       enums.MealSlot
	start, end int
}

// Half-open hour windows; gaps between them produce no meal reminder.
var slotWindows = []slotWindow{
	{slot: enums.MealSlotBreakfast, start: 5, end: 10},
	{slot: enums.MealSlotLunch, start: 11, end: 14},
	{slot: enums.MealSlotDinner, start: 17, end: 21},
}

// SlotForHour maps a local hour (0-23) to at most one meal slot.
func SlotForHour(hour int) (enums.MealSlot, bool) {
	for _, w := range slotWindows {
		if hour >= w.start && hour < w.end {
			return w.slot, true
		}
	}
	return "", false
}

// MealReminderID is the deterministic id of a slot's reminder for the day of at.
func MealReminderID(slot enums.MealSlot, at time.Time) string {
	return "meal-reminder-" + slot.String() + "-" + at.Format(dayLayout)
}

// GoalReminderID is the deterministic id of the refresh goal reminder for the day of at.
func GoalReminderID(at time.Time) string {
	return "goal-reminder-" + at.Format(dayLayout)
}
