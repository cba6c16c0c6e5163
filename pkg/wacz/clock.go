package wacz

import "time"

// Clock returns the current time. Injecting one lets a caller fix the
// `created` timestamp of a run to make output byte-for-byte
// reproducible.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }
