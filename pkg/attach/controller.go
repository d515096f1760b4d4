package attach

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spectrum24/spectrum-go/pkg/cis"
	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
	"github.com/spectrum24/spectrum-go/pkg/radio"
	"github.com/spectrum24/spectrum-go/pkg/reset"
)

// DefaultVcc is the operating voltage assumed when Config leaves
// RequestedVcc zero, in tenths of a volt.
const DefaultVcc = 50

// Controller errors.
var (
	ErrNoDriver        = errors.New("radio driver is required")
	ErrAlreadyAttached = errors.New("attachment already in progress or active")
	ErrNotRunning      = errors.New("attachment is not running")
	ErrNotSuspended    = errors.New("attachment is not suspended")
)

// UpstreamError wraps a radio-driver collaborator failure during
// configuration. It is fatal to the attach attempt and triggers a full
// release.
type UpstreamError struct {
	// Op names the failing driver entry point.
	Op string
	// Err is the error the driver reported.
	Err error
}

// Error returns the failing entry point and underlying cause.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("radio driver %s: %v", e.Op, e.Err)
}

// Unwrap returns the driver's error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Config configures a Controller. The voltage override is an explicit
// field here rather than process-wide state, so two sockets can carry
// different policies.
type Config struct {
	// RequestedVcc is the socket operating voltage in tenths of a volt.
	// Zero means DefaultVcc.
	RequestedVcc int

	// IgnoreVoltage permits CIS entries whose declared voltage
	// mismatches RequestedVcc. Workaround for cards with buggy CIS
	// tables that omit the entry for a voltage they do support.
	IgnoreVoltage bool

	// Driver is the radio-driver collaborator. Required.
	Driver radio.Driver

	// Logger receives hardware trace events. Nil disables tracing.
	Logger log.Logger

	// ResetSleep overrides the reset settle delay implementation.
	// Nil means real delays. Tests use this to run instantly.
	ResetSleep func(time.Duration)
}

// Controller owns the lifecycle of one card attachment. The bus runtime
// delivers insertion, removal, suspend and resume events serialized per
// device; the controller performs no internal threading beyond guarding
// the interrupt path against release.
type Controller struct {
	cfg    Config
	logger log.Logger

	mu              sync.Mutex
	state           State
	id              string
	dev             pcmcia.Device
	socket          *pcmcia.SocketConfig
	irq             int
	registered      bool
	deferredRelease bool

	// hwMu is shared with the interrupt path. hwUnavailable is raised
	// before the register window is torn down, and the interrupt
	// dispatch runs entirely under hwMu, so the radio driver's handler
	// can never dereference an unmapped window.
	hwMu          sync.Mutex
	hwUnavailable int
	window        pcmcia.IOWindow
}

// NewController creates a controller. Config.Driver is required.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Driver == nil {
		return nil, ErrNoDriver
	}
	if cfg.RequestedVcc == 0 {
		cfg.RequestedVcc = DefaultVcc
	}
	return &Controller{
		cfg:    cfg,
		logger: log.OrNoop(cfg.Logger),
		state:  StateUnattached,
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ID returns the identifier of the current (or most recent) attachment.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Socket returns a copy of the resolved socket configuration, or nil when
// no attachment is active.
func (c *Controller) Socket() *pcmcia.SocketConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.socket == nil {
		return nil
	}
	cp := *c.socket
	return &cp
}

// IRQ returns the allocated interrupt line, or 0 when none is held.
func (c *Controller) IRQ() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.irq
}

// setStateLocked transitions the state and emits a trace event.
// Caller holds c.mu.
func (c *Controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	prev := c.state
	c.state = next
	c.logger.Log(log.NewStateChangeEvent(c.id, prev.String(), next.String()))
}

// Attach reacts to a card insertion: it scans the CIS, configures the
// socket, resets the card with the firmware running, and hands the
// initialized hardware to the radio driver.
//
// Any failure at any step triggers a full release back to Unattached
// before the error is returned; no state is left half-configured. A
// Detach issued while Attach is configuring is deferred and performed as
// soon as the attempt completes.
func (c *Controller) Attach(dev pcmcia.Device) error {
	c.mu.Lock()
	if c.state != StateUnattached {
		c.mu.Unlock()
		return ErrAlreadyAttached
	}
	c.id = uuid.New().String()
	c.dev = dev
	c.setStateLocked(StateConfiguring)
	c.mu.Unlock()

	// Fresh attachment: the previous release's unavailable marks no
	// longer apply.
	c.hwMu.Lock()
	c.hwUnavailable = 0
	c.hwMu.Unlock()

	err := c.configure(dev)

	c.mu.Lock()
	deferred := c.deferredRelease
	c.deferredRelease = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Log(log.NewErrorEvent(c.id, "configure", err.Error(), c.voltageHint(err)))
		c.release()
		return err
	}

	c.mu.Lock()
	c.setStateLocked(StateRunning)
	c.mu.Unlock()

	if deferred {
		c.release()
	}
	return nil
}

// voltageHint returns the operator guidance for a failed scan, or "".
// The hint is emitted only when no entry matched and the override was not
// already set.
func (c *Controller) voltageHint(err error) string {
	if c.cfg.IgnoreVoltage || !errors.Is(err, cis.ErrNoMatchingConfig) {
		return ""
	}
	return "no matching CIS configuration; if the card is known to work at this voltage, enable the ignore-voltage option"
}

// configure runs the socket configuration sequence. The caller owns the
// release-on-failure path.
func (c *Controller) configure(dev pcmcia.Device) error {
	scanner := cis.NewScanner(cis.Options{
		RequestedVcc:  c.cfg.RequestedVcc,
		IgnoreVoltage: c.cfg.IgnoreVoltage,
		Logger:        c.cfg.Logger,
		AttachmentID:  c.id,
	})
	socket, err := scanner.Select(dev)
	if err != nil {
		return fmt.Errorf("CIS scan: %w", err)
	}
	c.mu.Lock()
	c.socket = socket
	c.mu.Unlock()

	// Allocate an interrupt line. The handler identity was wired at
	// construction; the bus only routes the line here.
	irq, err := dev.RequestIRQ()
	if err != nil {
		return fmt.Errorf("request IRQ: %w", err)
	}
	c.mu.Lock()
	c.irq = irq
	c.mu.Unlock()

	// Map the register window before committing the configuration, in
	// case the interrupt handler fires as soon as the socket goes live.
	win, err := dev.MapIO(socket.BasePort1, socket.NumPorts1)
	if err != nil {
		return fmt.Errorf("map I/O window: %w", err)
	}
	c.hwMu.Lock()
	c.window = win
	c.hwMu.Unlock()

	// Commit I/O windows, interrupt routing and memory-and-I/O mode to
	// the socket.
	if err := dev.RequestConfiguration(socket); err != nil {
		return fmt.Errorf("request configuration: %w", err)
	}

	// Bring the firmware up.
	seq := c.sequencer()
	if err := seq.Reset(dev, false); err != nil {
		return fmt.Errorf("hardware reset: %w", err)
	}

	fw := &firmwareControl{dev: dev, seq: seq}
	if err := c.cfg.Driver.Initialize(radio.Hardware{Window: win, Firmware: fw}); err != nil {
		return &UpstreamError{Op: "initialize", Err: err}
	}
	if err := c.cfg.Driver.RegisterInterface(socket.BasePort1, irq); err != nil {
		return &UpstreamError{Op: "register interface", Err: err}
	}
	c.mu.Lock()
	c.registered = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) sequencer() *reset.Sequencer {
	return &reset.Sequencer{
		Logger:       c.cfg.Logger,
		AttachmentID: c.id,
		Sleep:        c.cfg.ResetSleep,
	}
}

// Suspend marks the hardware unavailable to the radio driver, blocking
// further I/O until Resume. Configuration stays intact and nothing powers
// down.
func (c *Controller) Suspend() error {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.mu.Unlock()

	c.cfg.Driver.MarkUnavailable()

	c.mu.Lock()
	c.setStateLocked(StateSuspended)
	c.mu.Unlock()
	return nil
}

// Resume restores driver I/O availability. The transition to Running
// happens regardless of the driver's answer; on failure the error is
// returned and the caller decides whether to re-suspend or detach.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.state != StateSuspended {
		c.mu.Unlock()
		return ErrNotSuspended
	}
	c.mu.Unlock()

	err := c.cfg.Driver.MarkAvailable()

	c.mu.Lock()
	c.setStateLocked(StateRunning)
	c.mu.Unlock()

	if err != nil {
		c.logger.Log(log.NewErrorEvent(c.ID(), "resume", err.Error(), ""))
		return fmt.Errorf("resume: %w", err)
	}
	return nil
}

// Detach reacts to card removal: full teardown back to Unattached.
// Calling it twice is safe. A Detach during an in-flight configuration is
// latched and performed when the attempt completes.
func (c *Controller) Detach() {
	c.mu.Lock()
	if c.state == StateConfiguring {
		c.deferredRelease = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.release()
}

// release tears down the attachment: mark hardware unavailable, disable
// the device at the bus level, unmap the register window, unregister the
// network interface if it had been registered. Idempotent.
func (c *Controller) release() {
	c.mu.Lock()
	if c.state == StateUnattached {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateReleasing)
	dev := c.dev
	registered := c.registered
	c.registered = false
	c.mu.Unlock()

	// We're committed to taking the device away now. The unavailable
	// mark must be visible to the interrupt path before anything below
	// is torn down.
	c.hwMu.Lock()
	c.hwUnavailable++
	c.hwMu.Unlock()
	c.cfg.Driver.MarkUnavailable()

	if dev != nil {
		dev.Disable()
	}

	c.hwMu.Lock()
	win := c.window
	c.window = nil
	c.hwMu.Unlock()
	if win != nil {
		win.Unmap()
	}

	if registered {
		c.cfg.Driver.UnregisterInterface()
	}

	c.mu.Lock()
	c.dev = nil
	c.socket = nil
	c.irq = 0
	c.setStateLocked(StateUnattached)
	c.mu.Unlock()
}

// Interrupt is the handler identity installed with the bus runtime. It
// dispatches to the radio driver unless the hardware has been marked
// unavailable or the register window is gone. The dispatch runs under the
// lock shared with release, so a handler in flight excludes teardown.
func (c *Controller) Interrupt() {
	c.hwMu.Lock()
	defer c.hwMu.Unlock()
	if c.hwUnavailable > 0 || c.window == nil {
		return
	}
	c.cfg.Driver.HandleInterrupt()
}

// firmwareControl binds the reset sequencer to a device handle for the
// radio driver's firmware-download path.
type firmwareControl struct {
	dev pcmcia.Device
	seq *reset.Sequencer
}

// HardReset resets the card and leaves the firmware running.
func (f *firmwareControl) HardReset() error {
	return f.seq.Reset(f.dev, false)
}

// StopFirmware resets the card, halting the firmware when idle is true.
func (f *firmwareControl) StopFirmware(idle bool) error {
	return f.seq.Reset(f.dev, idle)
}

// Compile-time interface satisfaction check.
var _ radio.FirmwareControl = (*firmwareControl)(nil)
