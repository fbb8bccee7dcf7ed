package enums

import "testing"

func TestParseNotificationType(t *testing.T) {
	for _, raw := range []string{"goal", "meal", "system"} {
		got, err := ParseNotificationType(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if !got.IsValid() {
			t.Fatalf("expected %q to be valid", raw)
		}
	}
	if _, err := ParseNotificationType("order_alert"); err == nil {
		t.Fatal("expected unknown type to fail")
	}
}

func TestMealSlotCanonicalTimes(t *testing.T) {
	cases := map[MealSlot]string{
		MealSlotBreakfast: "8:00 AM",
		MealSlotLunch:     "12:30 PM",
		MealSlotDinner:    "7:00 PM",
	}
	for slot, want := range cases {
		if got := slot.CanonicalTime(); got != want {
			t.Fatalf("slot %s: expected %q got %q", slot, want, got)
		}
	}
	if MealSlot("brunch").IsValid() {
		t.Fatal("brunch is not a slot")
	}
	if _, err := ParseMealSlot("supper"); err == nil {
		t.Fatal("expected unknown slot to fail")
	}
}
