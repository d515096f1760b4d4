package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
)

// Card errors.
var (
	ErrCardAbsent  = errors.New("sim: card not present")
	ErrNoEntry     = errors.New("sim: configuration table exhausted")
	ErrIODenied    = errors.New("sim: I/O range occupied")
	ErrNotReserved = errors.New("sim: configuration requested without I/O reservation")
	ErrBadRegister = errors.New("sim: unknown configuration register")
)

// CardConfig describes the simulated card.
type CardConfig struct {
	// Identity is the identity the bus would read from the CIS.
	Identity pcmcia.CardIdentity

	// Entries is the CIS configuration table, in table order.
	Entries []pcmcia.ConfigEntry

	// Default is the table's default entry.
	Default pcmcia.ConfigEntry

	// IRQ is the interrupt line the socket hands out.
	IRQ int
}

// DefaultCardConfig returns a Symbol Spectrum24 LA4137-like card: a 5.0V
// default entry and one real entry with a 16-bit 16-port window at 0x300.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Identity: pcmcia.CardIdentity{Manufacturer: 0x026c, Card: 0x0001},
		Default: pcmcia.ConfigEntry{
			Index: 0,
			Vcc:   pcmcia.PowerDesc{Present: true, Nominal: 50 * pcmcia.VoltageScale},
		},
		Entries: []pcmcia.ConfigEntry{
			{Index: 0},
			{
				Index: 1,
				IO: pcmcia.IODesc{
					NumWindows:    1,
					Win:           [2]pcmcia.IOSpan{{Base: 0x300, Len: 16}},
					Supports16Bit: true,
				},
			},
		},
		IRQ: 11,
	}
}

// Card simulates one card in one socket. It implements pcmcia.Device.
// All methods are safe for concurrent use.
type Card struct {
	// RegisterFault, when non-nil, is consulted before every register
	// access; a non-nil return is surfaced as the bus error.
	RegisterFault func(write bool, reg pcmcia.ConfigRegister) error

	// DenyIO makes every I/O reservation fail, as if the range were
	// occupied by another device.
	DenyIO bool

	mu         sync.Mutex
	cfg        CardConfig
	present    bool
	cor        uint8
	ccsr       uint8
	reserved   bool
	configured bool
	mapped     int
}

// NewCard creates a present card with the firmware running and the
// 16-bit memory width bit set, as a freshly powered card reports.
func NewCard(cfg CardConfig) *Card {
	return &Card{
		cfg:     cfg,
		present: true,
		ccsr:    pcmcia.CCSRRun | pcmcia.CCSRMem16,
	}
}

// Identity returns the card identity.
func (c *Card) Identity() pcmcia.CardIdentity {
	return c.cfg.Identity
}

// Eject marks the card physically removed.
func (c *Card) Eject() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = false
}

// Insert marks the card present again.
func (c *Card) Insert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = true
}

// Present implements pcmcia.Device.
func (c *Card) Present() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present
}

// ReadConfig implements pcmcia.Device.
func (c *Card) ReadConfig(reg pcmcia.ConfigRegister) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.access(false, reg); err != nil {
		return 0, err
	}
	switch reg {
	case pcmcia.RegCOR:
		return c.cor, nil
	case pcmcia.RegCCSR:
		return c.ccsr, nil
	default:
		return 0, fmt.Errorf("%w: %#x", ErrBadRegister, uint8(reg))
	}
}

// WriteConfig implements pcmcia.Device. A write raising the soft-reset
// bit pulses the card: the firmware drops to idle with the memory width
// bit preserved, as the real hardware does.
func (c *Card) WriteConfig(reg pcmcia.ConfigRegister, value uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.access(true, reg); err != nil {
		return err
	}
	switch reg {
	case pcmcia.RegCOR:
		rising := value&pcmcia.CORSoftReset != 0 && c.cor&pcmcia.CORSoftReset == 0
		c.cor = value
		if rising {
			c.ccsr = pcmcia.CCSRIdle | (c.ccsr & pcmcia.CCSRMem16)
		}
		return nil
	case pcmcia.RegCCSR:
		c.ccsr = value
		return nil
	default:
		return fmt.Errorf("%w: %#x", ErrBadRegister, uint8(reg))
	}
}

func (c *Card) access(write bool, reg pcmcia.ConfigRegister) error {
	if !c.present {
		return ErrCardAbsent
	}
	if c.RegisterFault != nil {
		if err := c.RegisterFault(write, reg); err != nil {
			return err
		}
	}
	return nil
}

// LoopConfig implements pcmcia.Device.
func (c *Card) LoopConfig(check func(entry, dflt *pcmcia.ConfigEntry) error) error {
	c.mu.Lock()
	entries := make([]pcmcia.ConfigEntry, len(c.cfg.Entries))
	copy(entries, c.cfg.Entries)
	dflt := c.cfg.Default
	present := c.present
	c.mu.Unlock()

	if !present {
		return ErrCardAbsent
	}
	for i := range entries {
		if check(&entries[i], &dflt) == nil {
			return nil
		}
	}
	return ErrNoEntry
}

// RequestIO implements pcmcia.Device.
func (c *Card) RequestIO(cfg *pcmcia.SocketConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return ErrCardAbsent
	}
	if c.DenyIO {
		return ErrIODenied
	}
	c.reserved = true
	return nil
}

// RequestIRQ implements pcmcia.Device.
func (c *Card) RequestIRQ() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return 0, ErrCardAbsent
	}
	return c.cfg.IRQ, nil
}

// RequestConfiguration implements pcmcia.Device.
func (c *Card) RequestConfiguration(cfg *pcmcia.SocketConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return ErrCardAbsent
	}
	if cfg.NumPorts1 > 0 && !c.reserved {
		return ErrNotReserved
	}
	c.configured = true
	// Committing the configuration latches the entry index into COR.
	c.cor = uint8(cfg.Index)
	return nil
}

// MapIO implements pcmcia.Device.
func (c *Card) MapIO(base, length int) (pcmcia.IOWindow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return nil, ErrCardAbsent
	}
	c.mapped++
	return &window{card: c, base: base, length: length}, nil
}

// Disable implements pcmcia.Device.
func (c *Card) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserved = false
	c.configured = false
}

// Reserved reports whether an I/O reservation is held.
func (c *Card) Reserved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserved
}

// Configured reports whether a socket configuration has been committed.
func (c *Card) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}

// Mapped returns the number of live register window mappings.
func (c *Card) Mapped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapped
}

// COR returns the configuration-option register value.
func (c *Card) COR() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cor
}

// CCSR returns the configuration/status register value.
func (c *Card) CCSR() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ccsr
}

// FirmwareRunning reports whether the firmware-control bits of CCSR hold
// the run encoding.
func (c *Card) FirmwareRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ccsr&^pcmcia.CCSRMem16 == pcmcia.CCSRRun
}

// window is a mapped register window over the simulated card.
type window struct {
	mu     sync.Mutex
	card   *Card
	base   int
	length int
	closed bool
}

// Base implements pcmcia.IOWindow.
func (w *window) Base() int { return w.base }

// Len implements pcmcia.IOWindow.
func (w *window) Len() int { return w.length }

// Unmap implements pcmcia.IOWindow.
func (w *window) Unmap() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.card.mu.Lock()
	w.card.mapped--
	w.card.mu.Unlock()
}

// Compile-time interface satisfaction check.
var _ pcmcia.Device = (*Card)(nil)
