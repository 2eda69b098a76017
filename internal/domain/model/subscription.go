package model

import "time"

// Subscription is a subscriber's current access window. One row per
// subscriber; ExpiresAt is the single source of truth for access.
type Subscription struct {
	SubscriberID int64
	ExpiresAt    time.Time
}

// Active reports whether the subscription is still valid at the given instant.
func (s *Subscription) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// RemainingDays returns the number of whole-or-partial days left, rounded up.
// Zero if already expired.
func (s *Subscription) RemainingDays(now time.Time) int {
	if !s.Active(now) {
		return 0
	}
	left := s.ExpiresAt.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}
