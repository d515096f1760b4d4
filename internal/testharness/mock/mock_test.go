package mock_test

import (
	"errors"
	"testing"

	"github.com/spectrum24/spectrum-go/internal/testharness/mock"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
	"github.com/spectrum24/spectrum-go/pkg/radio"
)

func TestDeviceRegisters(t *testing.T) {
	dev := &mock.Device{}
	dev.SetRegister(pcmcia.RegCOR, 0x41)

	v, err := dev.ReadConfig(pcmcia.RegCOR)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if v != 0x41 {
		t.Errorf("Expected 0x41, got %#x", v)
	}

	if err := dev.WriteConfig(pcmcia.RegCCSR, 0x17); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}
	if dev.Register(pcmcia.RegCCSR) != 0x17 {
		t.Errorf("Write not stored, got %#x", dev.Register(pcmcia.RegCCSR))
	}

	ops := dev.Ops()
	if len(ops) != 2 {
		t.Fatalf("Expected 2 recorded ops, got %d", len(ops))
	}
	if ops[0].Write || ops[0].Register != pcmcia.RegCOR || ops[0].Value != 0x41 {
		t.Errorf("Read op not recorded correctly: %+v", ops[0])
	}
	if !ops[1].Write || ops[1].Register != pcmcia.RegCCSR || ops[1].Value != 0x17 {
		t.Errorf("Write op not recorded correctly: %+v", ops[1])
	}
}

func TestDeviceHandlers(t *testing.T) {
	faulted := errors.New("bus fault")
	dev := &mock.Device{}
	dev.Handlers.OnWriteConfig = func(reg pcmcia.ConfigRegister, value uint8) error {
		return faulted
	}

	if err := dev.WriteConfig(pcmcia.RegCOR, 0x80); !errors.Is(err, faulted) {
		t.Errorf("Expected scripted fault, got %v", err)
	}
	if len(dev.Ops()) != 0 {
		t.Error("Failed write should not be recorded")
	}
}

func TestDeviceLoopConfig(t *testing.T) {
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{{Index: 0}, {Index: 1}, {Index: 2}},
	}

	var seen []int
	err := dev.LoopConfig(func(entry, dflt *pcmcia.ConfigEntry) error {
		seen = append(seen, entry.Index)
		if entry.Index == 1 {
			return nil
		}
		return errors.New("next")
	})
	if err != nil {
		t.Fatalf("LoopConfig failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Errorf("Expected entries 0,1 visited, got %v", seen)
	}

	// Exhausting the table
	err = dev.LoopConfig(func(entry, dflt *pcmcia.ConfigEntry) error {
		return errors.New("next")
	})
	if err != mock.ErrNoEntryAccepted {
		t.Errorf("Expected ErrNoEntryAccepted, got %v", err)
	}
}

func TestDeviceDisableReleasesReservation(t *testing.T) {
	dev := &mock.Device{}
	if err := dev.RequestIO(&pcmcia.SocketConfig{}); err != nil {
		t.Fatalf("RequestIO failed: %v", err)
	}
	if dev.Reservations() != 1 {
		t.Fatalf("Expected 1 reservation, got %d", dev.Reservations())
	}

	dev.Disable()
	if dev.Reservations() != 0 {
		t.Error("Disable should release the reservation")
	}
	if dev.Disables() != 1 {
		t.Errorf("Expected 1 disable, got %d", dev.Disables())
	}
}

func TestDeviceWindows(t *testing.T) {
	dev := &mock.Device{}
	w, err := dev.MapIO(0x300, 16)
	if err != nil {
		t.Fatalf("MapIO failed: %v", err)
	}
	if w.Base() != 0x300 || w.Len() != 16 {
		t.Errorf("Window not created correctly: base %#x len %d", w.Base(), w.Len())
	}

	w.Unmap()
	w.Unmap()

	windows := dev.Windows()
	if len(windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(windows))
	}
	if windows[0].Unmaps() != 2 {
		t.Errorf("Expected 2 unmaps, got %d", windows[0].Unmaps())
	}
}

func TestRadioRecording(t *testing.T) {
	r := &mock.Radio{}

	if err := r.Initialize(radio.Hardware{}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := r.RegisterInterface(0x300, 11); err != nil {
		t.Fatalf("RegisterInterface failed: %v", err)
	}
	r.HandleInterrupt()
	r.MarkUnavailable()
	r.UnregisterInterface()

	want := []string{"initialize", "register-interface", "handle-interrupt", "mark-unavailable", "unregister-interface"}
	calls := r.Calls()
	if len(calls) != len(want) {
		t.Fatalf("Expected %d calls, got %d: %v", len(want), len(calls), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}

	if r.Registered() {
		t.Error("Interface should be unregistered")
	}
	ioBase, irq := r.RegisteredAt()
	if ioBase != 0x300 || irq != 11 {
		t.Errorf("Expected io 0x300 irq 11, got %#x %d", ioBase, irq)
	}
	if r.Interrupts() != 1 {
		t.Errorf("Expected 1 interrupt, got %d", r.Interrupts())
	}
	if r.Unavailable() != 1 {
		t.Errorf("Expected unavailable depth 1, got %d", r.Unavailable())
	}
}

func TestRadioHandlers(t *testing.T) {
	initErr := errors.New("firmware dead")
	r := &mock.Radio{}
	r.Handlers.OnInitialize = func(hw radio.Hardware) error {
		return initErr
	}

	if err := r.Initialize(radio.Hardware{}); !errors.Is(err, initErr) {
		t.Errorf("Expected scripted error, got %v", err)
	}
	if r.Initialized() {
		t.Error("Failed Initialize should not mark initialized")
	}
	if len(r.Calls()) != 1 || r.Calls()[0] != "initialize" {
		t.Errorf("Call should still be recorded: %v", r.Calls())
	}
}
