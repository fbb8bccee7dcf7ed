package enums

import "fmt"

// MealSlot names the meal a reminder targets.
type MealSlot string

const (
	MealSlotBreakfast MealSlot = "breakfast"
	MealSlotLunch     MealSlot = "lunch"
	MealSlotDinner    MealSlot = "dinner"
)

var validMealSlots = []MealSlot{
	MealSlotBreakfast,
	MealSlotLunch,
	MealSlotDinner,
}

var canonicalSlotTimes = map[MealSlot]string{
	MealSlotBreakfast: "8:00 AM",
	MealSlotLunch:     "12:30 PM",
	MealSlotDinner:    "7:00 PM",
}

// String implements fmt.Stringer.
func (s MealSlot) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MealSlot.
func (s MealSlot) IsValid() bool {
	for _, candidate := range validMealSlots {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanonicalTime is the display time used when a meal plan does not carry one.
func (s MealSlot) CanonicalTime() string {
	return canonicalSlotTimes[s]
}

// ParseMealSlot converts raw strings into MealSlot.
func ParseMealSlot(value string) (MealSlot, error) {
	for _, candidate := range validMealSlots {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meal slot %q", value)
}
