package model

import (
	"testing"
	"time"
)

func TestSubscriptionActive(t *testing.T) {
	now := time.Now()
	s := &Subscription{SubscriberID: 1, ExpiresAt: now.Add(time.Minute)}
	if !s.Active(now) {
		t.Error("subscription expiring in a minute should be active")
	}
	if s.Active(now.Add(2 * time.Minute)) {
		t.Error("subscription should be inactive past its expiry")
	}
	// expiry instant itself is no longer active
	if s.Active(s.ExpiresAt) {
		t.Error("subscription should be inactive at the exact expiry instant")
	}
}

func TestRemainingDays(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		left time.Duration
		want int
	}{
		{"expired", -time.Hour, 0},
		{"partial day rounds up", 36 * time.Hour, 2},
		{"exact days", 10 * 24 * time.Hour, 10},
		{"one minute left", time.Minute, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Subscription{ExpiresAt: now.Add(tc.left)}
			if got := s.RemainingDays(now); got != tc.want {
				t.Fatalf("RemainingDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCodeConsumed(t *testing.T) {
	c := &Code{Code: "X", Days: 30, CreatedAt: time.Now()}
	if c.Consumed() {
		t.Error("fresh code must not be consumed")
	}
	by := int64(42)
	at := time.Now()
	c.ConsumedBy = &by
	c.ConsumedAt = &at
	if !c.Consumed() {
		t.Error("code with consumer must be consumed")
	}
}
