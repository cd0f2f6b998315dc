package network

import (
	"log/slog"
	"sync"

	"github.com/unbase/unbase/memo"
)

// SimulatorTransport is an in-process, deterministic transport: Send
// delivers synchronously on the caller's goroutine. It is the transport
// every unit test in this module runs against, since it requires no
// real I/O and makes ordering reproducible.
type SimulatorTransport struct {
	mu      sync.RWMutex
	members map[memo.SlabId]Transmitter
	logger  *slog.Logger
}

// NewSimulatorTransport constructs an empty simulator transport.
func NewSimulatorTransport(logger *slog.Logger) *SimulatorTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatorTransport{members: make(map[memo.SlabId]Transmitter), logger: logger}
}

// RegisterSlab records the Transmitter that owns slab id.
func (s *SimulatorTransport) RegisterSlab(id memo.SlabId, _ memo.Address, t Transmitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = t
}

// Send hands args directly to the registered Transmitter for id.
func (s *SimulatorTransport) Send(id memo.SlabId, addr memo.Address, args TransmitterArgs) error {
	if addr.Kind == memo.AddressBlackhole {
		s.logger.Debug("simulator dropping packet to blackhole", "slab_id", id)
		return nil
	}
	s.mu.RLock()
	t, ok := s.members[id]
	s.mu.RUnlock()
	if !ok {
		return ErrUnknownAddress
	}
	return t.Receive(args)
}
