package repository

import "time"

// Timestamps are stored as INTEGER unix nanoseconds so ordering by created_at is exact.
func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
