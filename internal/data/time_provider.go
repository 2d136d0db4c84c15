package data

import "time"

// TimeProvider supplies write timestamps so tests can pin them.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the system clock in UTC.
type RealTimeProvider struct{}

// Now returns the current time in UTC.
func (RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// FixedTimeProvider always returns the same instant.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t.UTC()}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	return f.fixedTime
}

// AddTime moves the fixed time forward by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.fixedTime = f.fixedTime.Add(d)
}
