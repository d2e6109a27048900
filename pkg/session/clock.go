package session

import "time"

// Clock returns the current time. The manager takes its notion of "now"
// from a Clock so tests can drive expiry with a virtual clock instead
// of sleeping through real timeouts.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }
