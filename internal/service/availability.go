package service

import (
	"time"

	"github.com/elektromart/bundle_api/internal/models"
)

// Availability derives the lifecycle status of a bundle from its activity
// flag, time window, and stock counters. The checks run in precedence order;
// a pure function of bundle state and the supplied clock.
func Availability(b *models.Bundle, now time.Time) models.AvailabilityStatus {
	if !b.IsActive {
		return models.StatusDraft
	}
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return models.StatusScheduled
	}
	if b.EndsAt != nil && now.After(*b.EndsAt) {
		return models.StatusExpired
	}
	if b.StockLimit != nil && b.StockSold >= *b.StockLimit {
		return models.StatusSoldOut
	}
	return models.StatusActive
}
