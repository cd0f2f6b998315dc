package memo

// Lifetime is a slab's anticipated availability, advertised in a
// SlabPresence beacon.
type Lifetime uint8

const (
	LifetimeUnknown Lifetime = iota
	LifetimeEphemeral
	LifetimeDurable
)

// AddressKind distinguishes the transport address variants a slab may
// be reached at: local, simulator, or a remote variant.
type AddressKind uint8

const (
	AddressLocal AddressKind = iota
	AddressSimulator
	AddressRemote
	AddressBlackhole
)

// Address is a transport-agnostic description of where a slab may be
// reached. Remote holds a transport-specific dial string (e.g. a
// multiaddr or "host:port") interpreted by the Transport that accepts it.
type Address struct {
	Kind   AddressKind
	Remote string
}

func (a Address) IsLocal() bool { return a.Kind == AddressLocal }

func LocalAddress() Address     { return Address{Kind: AddressLocal} }
func SimulatorAddress() Address { return Address{Kind: AddressSimulator} }
func RemoteAddress(dial string) Address {
	return Address{Kind: AddressRemote, Remote: dial}
}
func BlackholeAddress() Address { return Address{Kind: AddressBlackhole} }

// Presence is a liveness beacon for one slab at one address.
type Presence struct {
	SlabID   SlabId
	Address  Address
	Lifetime Lifetime
}
