package pcmcia

// VoltageScale is the factor between CIS power values and tenths of a
// volt. CIS power descriptors carry nominal voltages pre-multiplied by
// this factor; dividing by it yields the operator-visible unit (50 = 5.0V,
// 33 = 3.3V).
const VoltageScale = 10000

// PowerDesc is one CIS power descriptor. Nominal is only meaningful when
// Present is true.
type PowerDesc struct {
	// Present indicates the descriptor declares a nominal voltage.
	Present bool

	// Nominal is the declared voltage, CIS-scaled (tenths of a volt
	// multiplied by VoltageScale).
	Nominal int
}

// Tenths returns the nominal voltage in tenths of a volt.
func (p PowerDesc) Tenths() int {
	return p.Nominal / VoltageScale
}

// IOSpan is one I/O window declared by a CIS entry.
type IOSpan struct {
	Base int
	Len  int
}

// IODesc is the I/O descriptor of a CIS entry: zero, one or two windows
// plus the card's declared data path capabilities.
type IODesc struct {
	// NumWindows is the number of declared windows (0..2).
	NumWindows int

	// Win holds the declared windows; only the first NumWindows are valid.
	Win [2]IOSpan

	// Supports8Bit and Supports16Bit are the declared data path widths.
	// A card may declare both, either, or neither.
	Supports8Bit  bool
	Supports16Bit bool
}

// ConfigEntry is one parsed row of the card's CIS configuration table.
// Entries are produced by the bus runtime during Device.LoopConfig and are
// only valid for the duration of the callback that receives them.
type ConfigEntry struct {
	// Index is the configuration index. Index 0 is the reserved default
	// marker and never selectable.
	Index int

	// Vcc is the operating voltage descriptor.
	Vcc PowerDesc

	// Vpp is the programming voltage descriptor.
	Vpp PowerDesc

	// IO is the I/O window descriptor.
	IO IODesc
}

// IOWidth is the data path width committed to the socket.
type IOWidth uint8

const (
	// IOWidthAuto lets the bus pick the width per access.
	IOWidthAuto IOWidth = iota

	// IOWidth8 forces 8-bit accesses.
	IOWidth8

	// IOWidth16 forces 16-bit accesses.
	IOWidth16
)

// String returns a human-readable width name.
func (w IOWidth) String() string {
	switch w {
	case IOWidthAuto:
		return "auto"
	case IOWidth8:
		return "8-bit"
	case IOWidth16:
		return "16-bit"
	default:
		return "unknown"
	}
}

// SocketConfig is the resolved socket configuration derived from an
// accepted CIS entry. It is written once per attachment and consumed
// immediately by RequestIO and RequestConfiguration; it must not be reused
// after the attachment is released.
type SocketConfig struct {
	// Index is the configuration index of the accepted entry.
	Index int

	// First I/O window. NumPorts1 == 0 means no I/O is reserved
	// (memory-only configuration).
	BasePort1 int
	NumPorts1 int

	// Second I/O window, when the entry declares one.
	BasePort2 int
	NumPorts2 int

	// Width is the committed data path width.
	Width IOWidth

	// EnableIRQ requests interrupt routing for this configuration.
	EnableIRQ bool

	// Vpp is the programming voltage in tenths of a volt; zero means the
	// CIS declared none and the socket default applies.
	Vpp int
}
