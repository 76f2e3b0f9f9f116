package domain

import "time"

// VersionToken renders a last-modified timestamp as the opaque concurrency
// token handed to clients.
func VersionToken(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NextVersion returns the last-modified timestamp for a record being written
// at now. The result is truncated to microseconds and is always strictly
// after prev, so two writes can never share a token.
func NextVersion(prev, now time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	if !next.After(prev) {
		next = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return next
}

// CheckConcurrency compares the token a caller last saw with the stored one.
func CheckConcurrency(supplied, stored string) error {
	if supplied != stored {
		return &ConflictError{Supplied: supplied, Stored: stored}
	}
	return nil
}
