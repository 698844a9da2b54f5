package keycode

// Timestamp is a monotonic millisecond counter supplied by the platform's
// Now method. It wraps at 2^32; comparisons must use Since/After/AtOrAfter rather
// than raw subtraction or less-than so that wraparound is handled correctly
// (see spec §3 and §9 "Timer wraparound").
type Timestamp uint32

// Since returns how many milliseconds have elapsed from earlier to t,
// correctly handling a single wraparound of the underlying counter. The
// result is only meaningful when the true elapsed time is less than 2^31ms
// (about 24 days), which the scheduler and tap-dance timeouts never
// approach.
func (t Timestamp) Since(earlier Timestamp) uint32 {
	return uint32(t - earlier)
}

// After reports whether t is strictly after deadline, tolerant of a single
// wraparound: the difference (t - deadline), interpreted as an unsigned
// 32-bit value, must be nonzero and less than 2^31.
func (t Timestamp) After(deadline Timestamp) bool {
	diff := uint32(t - deadline)
	return diff != 0 && diff < 0x80000000
}

// AtOrAfter reports whether t is deadline or later, tolerant of wraparound.
func (t Timestamp) AtOrAfter(deadline Timestamp) bool {
	return t == deadline || t.After(deadline)
}

// Add returns the timestamp delayMs milliseconds after t.
func (t Timestamp) Add(delayMs uint32) Timestamp {
	return t + Timestamp(delayMs)
}
