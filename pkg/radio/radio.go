// Package radio defines the contract between the attach layer and the
// higher-level radio driver that implements the 802.11 protocol.
//
// The attach layer brings the card to a runnable state and hands the
// driver an initialized Hardware handle; everything after that (frame
// processing, link state, interrupt-driven I/O) belongs to the driver.
package radio

import "github.com/spectrum24/spectrum-go/pkg/pcmcia"

// FirmwareControl lets the radio driver sequence the card's firmware
// state without knowing the underlying register protocol. The attach
// layer provides an implementation bound to the device handle.
type FirmwareControl interface {
	// HardReset resets the card and leaves the firmware running.
	HardReset() error

	// StopFirmware resets the card and halts the firmware when idle is
	// true, so that a new image can be downloaded safely. With idle
	// false it behaves like HardReset.
	StopFirmware(idle bool) error
}

// Hardware is the initialized hardware handle passed to the radio driver
// once configuration succeeds. The window stays valid until the driver's
// UnregisterInterface returns during release.
type Hardware struct {
	// Window is the mapped register window over the card's first I/O
	// range.
	Window pcmcia.IOWindow

	// Firmware controls the card's firmware run state.
	Firmware FirmwareControl
}

// Driver is the radio-driver collaborator. Implementations own the
// network-stack interface and the radio protocol; the attach layer only
// drives the calls below, in the documented order.
type Driver interface {
	// Initialize prepares the driver over freshly reset hardware. Called
	// once per attachment, after the card has been brought up.
	Initialize(hw Hardware) error

	// RegisterInterface registers the network interface with the stack.
	// Called after Initialize succeeds.
	RegisterInterface(ioBase, irq int) error

	// UnregisterInterface removes the network interface. Called during
	// release if RegisterInterface had succeeded. Must be idempotent.
	UnregisterInterface()

	// MarkUnavailable blocks driver I/O against the hardware. Called on
	// suspend and as the first step of release.
	MarkUnavailable()

	// MarkAvailable restores driver I/O after a suspend.
	MarkAvailable() error

	// HandleInterrupt services a hardware interrupt. The attach layer
	// guarantees it is never invoked once the register window has been
	// unmapped.
	HandleInterrupt()
}
