package tftp

import "time"

// Options bundles the configurable knobs spec.md §9 flags as a "half
// finished MAX_RETRIES policy" in the original source. Defaults match the
// spec's suggested values; callers (CLI flags, internal/config) may
// override either.
type Options struct {
	// InactivityTimeout is how long a single receive waits for any reply
	// before counting a retry (spec.md §3, §5: 25s).
	InactivityTimeout time.Duration
	// MaxRetries is the number of retransmissions allowed before a transfer
	// fails with TransportError{Kind: Timeout} (spec.md §5: 5).
	MaxRetries int
}

// DefaultOptions returns the spec's suggested timeout and retry budget.
func DefaultOptions() Options {
	return Options{
		InactivityTimeout: 25 * time.Second,
		MaxRetries:        5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.InactivityTimeout <= 0 {
		o.InactivityTimeout = d.InactivityTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = d.MaxRetries
	}
	return o
}
