package service

import (
	"testing"
	"time"

	"github.com/elektromart/bundle_api/internal/models"
)

func TestAvailability(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	limit5 := 5

	tests := []struct {
		name   string
		bundle models.Bundle
		want   models.AvailabilityStatus
	}{
		{
			name:   "inactive is draft",
			bundle: models.Bundle{IsActive: false},
			want:   models.StatusDraft,
		},
		{
			name:   "inactive wins over any window",
			bundle: models.Bundle{IsActive: false, StartsAt: &past, EndsAt: &future},
			want:   models.StatusDraft,
		},
		{
			name:   "before window is scheduled",
			bundle: models.Bundle{IsActive: true, StartsAt: &future},
			want:   models.StatusScheduled,
		},
		{
			name:   "after window is expired",
			bundle: models.Bundle{IsActive: true, EndsAt: &past},
			want:   models.StatusExpired,
		},
		{
			name:   "stock exhausted is sold out",
			bundle: models.Bundle{IsActive: true, StockLimit: &limit5, StockSold: 5},
			want:   models.StatusSoldOut,
		},
		{
			name:   "one unit left is still active",
			bundle: models.Bundle{IsActive: true, StockLimit: &limit5, StockSold: 4},
			want:   models.StatusActive,
		},
		{
			name:   "expired wins over sold out",
			bundle: models.Bundle{IsActive: true, EndsAt: &past, StockLimit: &limit5, StockSold: 5},
			want:   models.StatusExpired,
		},
		{
			name:   "no window no limit is active",
			bundle: models.Bundle{IsActive: true},
			want:   models.StatusActive,
		},
		{
			name:   "inside window is active",
			bundle: models.Bundle{IsActive: true, StartsAt: &past, EndsAt: &future},
			want:   models.StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Availability(&tt.bundle, now); got != tt.want {
				t.Errorf("Availability() = %s, want %s", got, tt.want)
			}
		})
	}
}
