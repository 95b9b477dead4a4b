package listings

import (
	"github.com/google/uuid"

	"github.com/swapmarket/backend/pkg/db/models"
)

// FieldChanges compares the incoming payload against the persisted row and
// returns the names of the fields that would change. Image changes are
// tracked separately by the reconciler.
func FieldChanges(current *models.Listing, input ListingInput) []string {
	var changed []string

	if current.Name != input.Name {
		changed = append(changed, "name")
	}
	if !uuidPtrEqual(current.CategoryID, input.CategoryID) {
		changed = append(changed, "category_id")
	}
	if current.Kind != input.Kind {
		changed = append(changed, "kind")
	}
	if current.Description != input.Description {
		changed = append(changed, "description")
	}
	if current.Contacts != input.Contacts {
		changed = append(changed, "contacts")
	}
	if !intPtrEqual(current.Condition, input.Condition) {
		changed = append(changed, "condition")
	}
	if !current.PriceCurrency.Equal(input.PriceCurrency) {
		changed = append(changed, "price_currency")
	}
	if current.PriceGifts != input.PriceGifts {
		changed = append(changed, "price_gifts")
	}
	if current.ReadyToChange != input.ReadyToChange {
		changed = append(changed, "ready_to_change")
	}

	return changed
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
