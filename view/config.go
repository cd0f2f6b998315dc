package view

import "time"

// Config holds the tunables of a Context's root-index bootstrap and
// compaction policy.
type Config struct {
	// RootIndexPollInterval is how often TryRootIndex is retried while a
	// blocking RootIndex wait is outstanding.
	RootIndexPollInterval time.Duration
	// RootIndexWaitTimeout bounds how long RootIndex blocks before
	// giving up with ErrCodeRootIndexTimeout.
	RootIndexWaitTimeout time.Duration
	// CompactionThreshold is the stash tip cardinality at which a
	// Context should consider running compaction.
	CompactionThreshold int
}

// DefaultConfig returns production-reasonable defaults.
func DefaultConfig() Config {
	return Config{
		RootIndexPollInterval: 50 * time.Millisecond,
		RootIndexWaitTimeout:  5 * time.Second,
		CompactionThreshold:   64,
	}
}
