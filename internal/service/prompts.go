package service

import (
	"fmt"

	"github.com/Harshitk-cp/concierge/internal/domain"
)

// stagePrompts are shown when a stage is entered or re-asked. The slot stage
// has no prompt of its own: it always answers with a slot selection.
var stagePrompts = map[domain.Stage]string{
	domain.StageGreet:   "Hi! Welcome to Amenity Booking 👋 Tell me which community you belong to.",
	domain.StageAmenity: "What amenity would you like to book?",
	domain.StageEmail:   "Please provide your email address to confirm.",
}

const (
	msgDidNotCatch   = "Sorry, I didn't catch that."
	msgBookingFailed = "Sorry, we couldn't complete your booking right now. Please send your email address again to retry."
)

func promptFor(stage domain.Stage) (string, bool) {
	p, ok := stagePrompts[stage]
	return p, ok
}

func msgAmenityUnavailable(community string) string {
	return fmt.Sprintf("Amenity not available in %s. Try another.", community)
}

func msgNoSlots(amenity, community string) string {
	return fmt.Sprintf("No available slots for %s in %s. Try another amenity.", amenity, community)
}

func msgSlotList(amenity, community string) string {
	return fmt.Sprintf("Available time slots for %s in %s:", amenity, community)
}

func msgInvalidSlot(amenity string) string {
	return fmt.Sprintf("Invalid slot. Please select one of these for %s:", amenity)
}

func msgConfirmed(b *domain.Booking) string {
	return fmt.Sprintf("✅ Booking confirmed for %s in %s at %s! Confirmation sent to %s.",
		b.Amenity, b.Community, b.Slot, b.Email)
}
