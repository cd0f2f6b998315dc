package network

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	libp2phost "github.com/libp2p/go-libp2p/core/host"
	libp2pnetwork "github.com/libp2p/go-libp2p/core/network"
	libp2ppeer "github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/unbase/unbase/memo"
)

const memoProtocol = "/unbase/memo/1.0.0"

// LibP2PTransport delivers packets over a real libp2p host, dialing
// peers by multiaddr (memo.Address.Remote). One transport hosts exactly
// one local slab, mirroring the one-host-per-node shape of
// internal/network/mesh.go in the reference mesh implementation this
// pattern is adapted from.
type LibP2PTransport struct {
	host   libp2phost.Host
	logger *slog.Logger

	mu      sync.RWMutex
	slabID  memo.SlabId
	local   Transmitter
}

// NewLibP2PTransport starts a libp2p host with an ephemeral identity and
// installs the memo stream handler. Callers obtain a dialable address
// for this transport via Multiaddr().
func NewLibP2PTransport(logger *slog.Logger) (*LibP2PTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	priv, _, err := libp2pcrypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, fmt.Errorf("network: generate identity: %w", err)
	}
	host, err := libp2p.New(libp2p.Identity(priv))
	if err != nil {
		return nil, fmt.Errorf("network: start libp2p host: %w", err)
	}

	t := &LibP2PTransport{host: host, logger: logger}
	host.SetStreamHandler(memoProtocol, t.handleStream)
	return t, nil
}

// Multiaddr returns this transport's full dialable address, including
// its peer id, for use in memo.RemoteAddress.
func (t *LibP2PTransport) Multiaddr() string {
	addrs := t.host.Addrs()
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0].String() + "/p2p/" + t.host.ID().String()
}

// RegisterSlab binds the single locally-hosted slab this transport
// serves. A real deployment runs one LibP2PTransport per slab process.
func (t *LibP2PTransport) RegisterSlab(id memo.SlabId, _ memo.Address, recv Transmitter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slabID = id
	t.local = recv
}

// Send dials addr.Remote and writes a framed packet (4-byte big-endian
// sender slab id, then the payload) over the memo protocol stream.
func (t *LibP2PTransport) Send(_ memo.SlabId, addr memo.Address, args TransmitterArgs) error {
	if addr.Kind == memo.AddressBlackhole {
		return nil
	}
	if addr.Kind != memo.AddressRemote {
		return ErrUnknownAddress
	}

	maddr, err := ma.NewMultiaddr(addr.Remote)
	if err != nil {
		return fmt.Errorf("network: parse multiaddr: %w", err)
	}
	info, err := libp2ppeer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return fmt.Errorf("network: resolve peer info: %w", err)
	}

	ctx := context.Background()
	if err := t.host.Connect(ctx, *info); err != nil {
		return fmt.Errorf("network: connect to peer: %w", err)
	}
	stream, err := t.host.NewStream(ctx, info.ID, memoProtocol)
	if err != nil {
		return fmt.Errorf("network: open stream: %w", err)
	}
	defer stream.Close()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(args.From.SlabID()))
	if _, err := stream.Write(header); err != nil {
		return fmt.Errorf("network: write header: %w", err)
	}
	if _, err := stream.Write(args.Payload); err != nil {
		return fmt.Errorf("network: write payload: %w", err)
	}
	return nil
}

func (t *LibP2PTransport) handleStream(s libp2pnetwork.Stream) {
	defer s.Close()
	data, err := io.ReadAll(s)
	if err != nil {
		t.logger.Warn("libp2p stream read failed", "error", err)
		return
	}
	if len(data) < 4 {
		t.logger.Warn("libp2p packet too short to carry a sender header")
		return
	}
	senderID := memo.SlabId(binary.BigEndian.Uint32(data[:4]))
	payload := data[4:]

	t.mu.RLock()
	local := t.local
	t.mu.RUnlock()
	if local == nil {
		t.logger.Warn("libp2p packet received before a local slab was registered")
		return
	}

	from := NewSlabRef(senderID, memo.RemoteAddress(s.Conn().RemoteMultiaddr().String()), t)
	if err := local.Receive(TransmitterArgs{From: from, Payload: payload}); err != nil {
		t.logger.Warn("local transmitter rejected inbound packet", "error", err)
	}
}
