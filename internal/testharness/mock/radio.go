package mock

import (
	"sync"

	"github.com/spectrum24/spectrum-go/pkg/radio"
)

// RadioHandlers holds per-test behavior overrides for the mock radio
// driver. A nil handler means success.
type RadioHandlers struct {
	// OnInitialize overrides Initialize.
	OnInitialize func(hw radio.Hardware) error

	// OnRegisterInterface overrides RegisterInterface.
	OnRegisterInterface func(ioBase, irq int) error

	// OnMarkAvailable overrides MarkAvailable.
	OnMarkAvailable func() error
}

// Radio is a recording radio.Driver double.
type Radio struct {
	// Handlers are per-test behavior overrides.
	Handlers RadioHandlers

	mu          sync.Mutex
	calls       []string
	hw          radio.Hardware
	initialized bool
	registered  bool
	ioBase      int
	irq         int
	unavailable int
	interrupts  int
}

// Calls returns the driver entry points invoked, in order.
func (r *Radio) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Hardware returns the handle passed to Initialize.
func (r *Radio) Hardware() radio.Hardware {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hw
}

// Initialized reports whether Initialize succeeded.
func (r *Radio) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Registered reports whether the interface is currently registered.
func (r *Radio) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

// RegisteredAt returns the io base and irq passed to RegisterInterface.
func (r *Radio) RegisteredAt() (ioBase, irq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ioBase, r.irq
}

// Unavailable returns the current unavailable depth (MarkUnavailable
// calls minus successful MarkAvailable calls).
func (r *Radio) Unavailable() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unavailable
}

// Interrupts returns how many interrupts were dispatched to the driver.
func (r *Radio) Interrupts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interrupts
}

func (r *Radio) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

// Initialize implements radio.Driver.
func (r *Radio) Initialize(hw radio.Hardware) error {
	r.record("initialize")
	if r.Handlers.OnInitialize != nil {
		if err := r.Handlers.OnInitialize(hw); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hw = hw
	r.initialized = true
	return nil
}

// RegisterInterface implements radio.Driver.
func (r *Radio) RegisterInterface(ioBase, irq int) error {
	r.record("register-interface")
	if r.Handlers.OnRegisterInterface != nil {
		if err := r.Handlers.OnRegisterInterface(ioBase, irq); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = true
	r.ioBase = ioBase
	r.irq = irq
	return nil
}

// UnregisterInterface implements radio.Driver.
func (r *Radio) UnregisterInterface() {
	r.record("unregister-interface")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = false
}

// MarkUnavailable implements radio.Driver.
func (r *Radio) MarkUnavailable() {
	r.record("mark-unavailable")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable++
}

// MarkAvailable implements radio.Driver.
func (r *Radio) MarkAvailable() error {
	r.record("mark-available")
	if r.Handlers.OnMarkAvailable != nil {
		if err := r.Handlers.OnMarkAvailable(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable--
	return nil
}

// HandleInterrupt implements radio.Driver.
func (r *Radio) HandleInterrupt() {
	r.record("handle-interrupt")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupts++
}

// Compile-time interface satisfaction check.
var _ radio.Driver = (*Radio)(nil)
