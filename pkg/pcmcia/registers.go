package pcmcia

// ConfigRegister names a card configuration register in attribute memory.
type ConfigRegister uint8

// Configuration register offsets.
const (
	// RegCOR is the configuration-option register. It selects the active
	// configuration index and hosts the soft-reset trigger bit.
	RegCOR ConfigRegister = 0x00

	// RegCCSR is the configuration/status register. It reflects and
	// controls the firmware run state and the memory bus width.
	RegCCSR ConfigRegister = 0x02
)

// String returns the register name.
func (r ConfigRegister) String() string {
	switch r {
	case RegCOR:
		return "COR"
	case RegCCSR:
		return "CCSR"
	default:
		return "UNKNOWN"
	}
}

// COR bits.
const (
	// CORSoftReset triggers a card soft reset while set.
	CORSoftReset uint8 = 0x80
)

// CCSR firmware-control encodings for Symbol-firmware cards.
const (
	// CCSRRun makes the embedded firmware run after reset.
	CCSRRun uint8 = 0x07

	// CCSRIdle halts the embedded firmware after reset, so that it can
	// be safely rewritten.
	CCSRIdle uint8 = 0x0E

	// CCSRMem16 is the memory width bit. It must be preserved verbatim
	// across any CCSR write.
	CCSRMem16 uint8 = 0x10
)
