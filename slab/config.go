package slab

import "time"

// Config holds the tunables of a slab agent's admission, dedup, and
// durability-by-replication policy.
type Config struct {
	// DurabilityFactor is the minimum number of distinct peers a
	// data-bearing memo (DoesPeering() == true) must be known resident
	// on before this agent will consider remotizing it locally.
	DurabilityFactor int

	// PeeringReplyOnUnexpected controls whether receiving an unexpected
	// memo triggers a Peering reply to the sender. A memo counts as
	// unexpected when it was not already resident here and is not a
	// request, peering or presence memo; outstanding requests and
	// waiters are not consulted.
	PeeringReplyOnUnexpected bool

	// BloomExpectedElements and BloomFalsePositiveRate size the
	// dedup-hint Bloom filter. The filter is advisory only: a positive
	// hit still requires a map lookup against the authoritative by-id
	// table before a memo is treated as a duplicate.
	BloomExpectedElements  uint
	BloomFalsePositiveRate float64

	// MemoRequestTimeout is carried in the config and set by
	// DefaultConfig; no SlabAgent code path reads it, so MemoWait
	// channels have no timeout of their own.
	MemoRequestTimeout time.Duration

	// PeeringFanout caps how many peers not already peered for a given
	// memo are sent that memo when it is newly emitted. Bounding fanout
	// (rather than broadcasting to every known peer) keeps replication
	// traffic from growing with peer count.
	PeeringFanout int
}

// DefaultConfig returns production-reasonable defaults.
func DefaultConfig() Config {
	return Config{
		DurabilityFactor:         3,
		PeeringReplyOnUnexpected: true,
		BloomExpectedElements:    100000,
		BloomFalsePositiveRate:   0.01,
		MemoRequestTimeout:       5 * time.Second,
		PeeringFanout:            5,
	}
}
