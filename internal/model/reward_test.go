package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRewardRedeemable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	zero := 0
	five := 5

	tests := []struct {
		name   string
		reward Reward
		want   bool
	}{
		{"active unlimited stock", Reward{Active: true}, true},
		{"inactive", Reward{Active: false}, false},
		{"stock left", Reward{Active: true, Stock: &five}, true},
		{"stock exhausted", Reward{Active: true, Stock: &zero}, false},
		{"expired", Reward{Active: true, ExpiresAt: &past}, false},
		{"expires later", Reward{Active: true, ExpiresAt: &future}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reward.Redeemable(now))
		})
	}
}

func TestRewardLiveIgnoresStock(t *testing.T) {
	now := time.Now()
	zero := 0

	// An exhausted reward is still live: running out is an out-of-stock
	// condition, not an unavailable one.
	soldOut := Reward{Active: true, Stock: &zero}
	assert.True(t, soldOut.Live(now))
	assert.False(t, soldOut.Redeemable(now))

	inactive := Reward{Active: false}
	assert.False(t, inactive.Live(now))
}

func TestRewardAvailability(t *testing.T) {
	now := time.Now()
	zero := 0
	three := 3
	fifty := 50

	tests := []struct {
		name   string
		reward Reward
		want   string
	}{
		{"unlimited stock", Reward{Active: true}, AvailabilityAvailable},
		{"plenty of stock", Reward{Active: true, Stock: &fifty}, AvailabilityAvailable},
		{"low stock", Reward{Active: true, Stock: &three}, AvailabilityLimited},
		{"no stock", Reward{Active: true, Stock: &zero}, AvailabilityUnavailable},
		{"inactive", Reward{Active: false, Stock: &fifty}, AvailabilityUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reward.Availability(now))
		})
	}
}
