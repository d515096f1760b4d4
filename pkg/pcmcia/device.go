package pcmcia

// IOWindow is a mapped, addressable view of a reserved I/O range. The
// attach layer hands it to the radio driver at initialization and unmaps
// it on release. Unmap must be safe to call exactly once per mapping; the
// attach layer guarantees it is never called while the interrupt path can
// still reach the window.
type IOWindow interface {
	// Base returns the I/O base the window was mapped from.
	Base() int

	// Len returns the mapped length in ports.
	Len() int

	// Unmap releases the mapping. The window is unusable afterwards.
	Unmap()
}

// Device is the bus runtime's view of one physical card slot. It is the
// register-access adapter the attach layer drives; the handle is owned by
// the bus and only referenced here.
//
// All methods are called from the single bus event context, except that
// the bus may invoke them during LoopConfig callbacks. Implementations do
// not need internal locking beyond what their own state requires.
type Device interface {
	// Present reports whether the card is physically present. Register
	// access against an absent card is undefined; callers must check
	// first.
	Present() bool

	// ReadConfig reads one configuration register.
	ReadConfig(reg ConfigRegister) (uint8, error)

	// WriteConfig writes one configuration register.
	WriteConfig(reg ConfigRegister, value uint8) error

	// LoopConfig iterates the card's CIS configuration table in order,
	// invoking check once per entry with the entry and the table's
	// default entry. The sequence is finite and not restartable.
	//
	// A nil return from check accepts the entry and stops iteration; a
	// non-nil return rejects it and moves to the next entry. LoopConfig
	// returns nil if an entry was accepted, or an error once the table
	// is exhausted without acceptance.
	LoopConfig(check func(entry, dflt *ConfigEntry) error) error

	// RequestIO reserves the I/O range described by cfg with the bus.
	// Reservation does not enable the device. A failed request leaves
	// nothing held.
	RequestIO(cfg *SocketConfig) error

	// RequestIRQ allocates an interrupt line for the device and returns
	// its number.
	RequestIRQ() (int, error)

	// RequestConfiguration commits the socket configuration to hardware:
	// I/O windows, interrupt routing, Vpp and memory-and-I/O mode.
	RequestConfiguration(cfg *SocketConfig) error

	// MapIO maps a reserved I/O range into an addressable window.
	MapIO(base, length int) (IOWindow, error)

	// Disable disables the device at the bus level and releases any
	// resources held for it (I/O reservations, IRQ, configuration).
	// Safe to call at any point after a partial configuration attempt,
	// and idempotent.
	Disable()
}
