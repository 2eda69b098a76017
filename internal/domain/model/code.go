package model

import "time"

// Duration bounds for admin-created codes, in days.
const (
	MinCodeDays = 1
	MaxCodeDays = 3650
)

// Code is a single-use voucher redeemable for a fixed number of days of
// VIP channel access. The token itself is the primary key.
type Code struct {
	Code       string
	Days       int
	CreatedAt  time.Time
	ConsumedBy *int64     // Pointer to allow for NULL
	ConsumedAt *time.Time // Pointer to allow for NULL
}

// Consumed reports whether the code has already been redeemed.
// ConsumedBy and ConsumedAt are always set together.
func (c *Code) Consumed() bool {
	return c.ConsumedBy != nil
}
