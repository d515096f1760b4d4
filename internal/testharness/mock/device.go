package mock

import (
	"errors"
	"sync"

	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
)

// Mock package errors.
var (
	// ErrNoEntryAccepted is returned by LoopConfig when the scripted
	// table is exhausted.
	ErrNoEntryAccepted = errors.New("no entry accepted")

	// ErrIOReservationDenied is the default error for a scripted I/O
	// reservation failure.
	ErrIOReservationDenied = errors.New("I/O reservation denied")
)

// RegisterOp is one recorded configuration register access.
type RegisterOp struct {
	// Write is true for writes, false for reads.
	Write bool

	// Register is the accessed register.
	Register pcmcia.ConfigRegister

	// Value is the value written, or returned by the read.
	Value uint8
}

// DeviceHandlers holds per-test behavior overrides. A nil handler leaves
// the default behavior in place.
type DeviceHandlers struct {
	// OnReadConfig overrides register reads.
	OnReadConfig func(reg pcmcia.ConfigRegister) (uint8, error)

	// OnWriteConfig overrides register writes.
	OnWriteConfig func(reg pcmcia.ConfigRegister, value uint8) error

	// OnRequestIO overrides I/O reservations.
	OnRequestIO func(cfg *pcmcia.SocketConfig) error

	// OnRequestIRQ overrides interrupt allocation.
	OnRequestIRQ func() (int, error)

	// OnRequestConfiguration overrides the configuration commit.
	OnRequestConfiguration func(cfg *pcmcia.SocketConfig) error

	// OnMapIO overrides window mapping.
	OnMapIO func(base, length int) (pcmcia.IOWindow, error)
}

// Device is a scripted pcmcia.Device. The zero value is a present card
// with an empty register file and no CIS entries.
type Device struct {
	// Entries is the scripted CIS table, iterated by LoopConfig.
	Entries []pcmcia.ConfigEntry

	// Default is the table's default entry.
	Default pcmcia.ConfigEntry

	// IRQ is the line RequestIRQ hands out.
	IRQ int

	// Absent makes Present report false.
	Absent bool

	// Handlers are per-test behavior overrides.
	Handlers DeviceHandlers

	mu           sync.Mutex
	registers    map[pcmcia.ConfigRegister]uint8
	ops          []RegisterOp
	reservations int
	disables     int
	configs      []pcmcia.SocketConfig
	windows      []*Window
}

// SetRegister seeds a register value.
func (d *Device) SetRegister(reg pcmcia.ConfigRegister, value uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registers == nil {
		d.registers = make(map[pcmcia.ConfigRegister]uint8)
	}
	d.registers[reg] = value
}

// Register returns the current value of a register.
func (d *Device) Register(reg pcmcia.ConfigRegister) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registers[reg]
}

// Ops returns the recorded register accesses in order.
func (d *Device) Ops() []RegisterOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RegisterOp, len(d.ops))
	copy(out, d.ops)
	return out
}

// Reservations returns how many I/O reservations succeeded.
func (d *Device) Reservations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reservations
}

// Disables returns how many times Disable was called.
func (d *Device) Disables() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disables
}

// CommittedConfigs returns the configurations passed to
// RequestConfiguration.
func (d *Device) CommittedConfigs() []pcmcia.SocketConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]pcmcia.SocketConfig, len(d.configs))
	copy(out, d.configs)
	return out
}

// Windows returns every window handed out by MapIO.
func (d *Device) Windows() []*Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Window, len(d.windows))
	copy(out, d.windows)
	return out
}

// Present implements pcmcia.Device.
func (d *Device) Present() bool {
	return !d.Absent
}

// ReadConfig implements pcmcia.Device.
func (d *Device) ReadConfig(reg pcmcia.ConfigRegister) (uint8, error) {
	if d.Handlers.OnReadConfig != nil {
		v, err := d.Handlers.OnReadConfig(reg)
		if err != nil {
			return 0, err
		}
		d.record(RegisterOp{Register: reg, Value: v})
		return v, nil
	}
	d.mu.Lock()
	v := d.registers[reg]
	d.mu.Unlock()
	d.record(RegisterOp{Register: reg, Value: v})
	return v, nil
}

// WriteConfig implements pcmcia.Device.
func (d *Device) WriteConfig(reg pcmcia.ConfigRegister, value uint8) error {
	if d.Handlers.OnWriteConfig != nil {
		if err := d.Handlers.OnWriteConfig(reg, value); err != nil {
			return err
		}
	}
	d.mu.Lock()
	if d.registers == nil {
		d.registers = make(map[pcmcia.ConfigRegister]uint8)
	}
	d.registers[reg] = value
	d.mu.Unlock()
	d.record(RegisterOp{Write: true, Register: reg, Value: value})
	return nil
}

func (d *Device) record(op RegisterOp) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, op)
}

// LoopConfig implements pcmcia.Device.
func (d *Device) LoopConfig(check func(entry, dflt *pcmcia.ConfigEntry) error) error {
	for i := range d.Entries {
		if check(&d.Entries[i], &d.Default) == nil {
			return nil
		}
	}
	return ErrNoEntryAccepted
}

// RequestIO implements pcmcia.Device.
func (d *Device) RequestIO(cfg *pcmcia.SocketConfig) error {
	if d.Handlers.OnRequestIO != nil {
		if err := d.Handlers.OnRequestIO(cfg); err != nil {
			return err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reservations++
	return nil
}

// RequestIRQ implements pcmcia.Device.
func (d *Device) RequestIRQ() (int, error) {
	if d.Handlers.OnRequestIRQ != nil {
		return d.Handlers.OnRequestIRQ()
	}
	return d.IRQ, nil
}

// RequestConfiguration implements pcmcia.Device.
func (d *Device) RequestConfiguration(cfg *pcmcia.SocketConfig) error {
	if d.Handlers.OnRequestConfiguration != nil {
		if err := d.Handlers.OnRequestConfiguration(cfg); err != nil {
			return err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configs = append(d.configs, *cfg)
	return nil
}

// MapIO implements pcmcia.Device.
func (d *Device) MapIO(base, length int) (pcmcia.IOWindow, error) {
	if d.Handlers.OnMapIO != nil {
		return d.Handlers.OnMapIO(base, length)
	}
	w := &Window{BasePort: base, Length: length}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, w)
	return w, nil
}

// Disable implements pcmcia.Device. It releases any held reservation, the
// way the bus runtime's disable does.
func (d *Device) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disables++
	d.reservations = 0
}

// Window is a recorded I/O window mapping.
type Window struct {
	BasePort int
	Length   int

	mu     sync.Mutex
	unmaps int
}

// Base implements pcmcia.IOWindow.
func (w *Window) Base() int { return w.BasePort }

// Len implements pcmcia.IOWindow.
func (w *Window) Len() int { return w.Length }

// Unmap implements pcmcia.IOWindow.
func (w *Window) Unmap() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unmaps++
}

// Unmaps returns how many times Unmap was called.
func (w *Window) Unmaps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unmaps
}

// Compile-time interface satisfaction checks.
var (
	_ pcmcia.Device   = (*Device)(nil)
	_ pcmcia.IOWindow = (*Window)(nil)
)
