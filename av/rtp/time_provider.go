package rtp

import "time"

// TimeProvider is an interface for getting the current time.
// This allows injecting a mock time provider for deterministic testing.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the actual system time.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// TimeProviderFunc adapts a plain function to TimeProvider.
type TimeProviderFunc func() time.Time

// Now calls f.
func (f TimeProviderFunc) Now() time.Time {
	return f()
}

// defaultTimeProvider is the package-level default time provider.
var defaultTimeProvider TimeProvider = RealTimeProvider{}

// getTimeProvider returns tp if non-nil, otherwise the package default.
func getTimeProvider(tp TimeProvider) TimeProvider {
	if tp != nil {
		return tp
	}
	return defaultTimeProvider
}
