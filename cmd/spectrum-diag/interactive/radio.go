package interactive

import (
	"fmt"
	"io"
	"sync"

	"github.com/spectrum24/spectrum-go/pkg/radio"
)

// consoleRadio is the radio-driver stand-in behind the console. It
// prints each driver entry point as it is called, so the operator can
// watch the attach layer drive the contract.
type consoleRadio struct {
	out io.Writer

	mu     sync.Mutex
	hw     radio.Hardware
	active bool
	irqs   int
}

func (r *consoleRadio) firmware() radio.FirmwareControl {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil
	}
	return r.hw.Firmware
}

func (r *consoleRadio) interrupts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.irqs
}

// Initialize implements radio.Driver.
func (r *consoleRadio) Initialize(hw radio.Hardware) error {
	r.mu.Lock()
	r.hw = hw
	r.active = true
	r.mu.Unlock()
	fmt.Fprintf(r.out, "[driver] initialize: window 0x%x len %d\n", hw.Window.Base(), hw.Window.Len())
	return nil
}

// RegisterInterface implements radio.Driver.
func (r *consoleRadio) RegisterInterface(ioBase, irq int) error {
	fmt.Fprintf(r.out, "[driver] register interface: io 0x%x irq %d\n", ioBase, irq)
	return nil
}

// UnregisterInterface implements radio.Driver.
func (r *consoleRadio) UnregisterInterface() {
	r.mu.Lock()
	r.active = false
	r.hw = radio.Hardware{}
	r.mu.Unlock()
	fmt.Fprintln(r.out, "[driver] unregister interface")
}

// MarkUnavailable implements radio.Driver.
func (r *consoleRadio) MarkUnavailable() {
	fmt.Fprintln(r.out, "[driver] hardware unavailable")
}

// MarkAvailable implements radio.Driver.
func (r *consoleRadio) MarkAvailable() error {
	fmt.Fprintln(r.out, "[driver] hardware available")
	return nil
}

// HandleInterrupt implements radio.Driver.
func (r *consoleRadio) HandleInterrupt() {
	r.mu.Lock()
	r.irqs++
	r.mu.Unlock()
}

var _ radio.Driver = (*consoleRadio)(nil)
