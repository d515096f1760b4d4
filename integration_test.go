package spectrum_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectrum24/spectrum-go/internal/testharness/mock"
	"github.com/spectrum24/spectrum-go/pkg/attach"
	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
	"github.com/spectrum24/spectrum-go/pkg/sim"
)

// TestFullLifecycle drives a simulated Symbol card through the complete
// attachment lifecycle: insertion, configuration, firmware bring-up,
// suspend/resume, firmware idle for a download window, and removal.
func TestFullLifecycle(t *testing.T) {
	card := sim.NewCard(sim.DefaultCardConfig())
	require.True(t, pcmcia.MatchesAny(card.Identity()), "bus would not route events to this driver")

	driver := &mock.Radio{}
	logger := &log.MemoryLogger{}
	ctrl, err := attach.NewController(attach.Config{
		Driver:     driver,
		Logger:     logger,
		ResetSleep: func(time.Duration) {},
	})
	require.NoError(t, err)

	// Insertion.
	require.NoError(t, ctrl.Attach(card))
	assert.Equal(t, attach.StateRunning, ctrl.State())
	assert.True(t, card.FirmwareRunning(), "attach must leave the firmware running")
	assert.True(t, card.Configured())
	assert.Equal(t, 1, card.Mapped())
	assert.True(t, driver.Initialized())
	assert.True(t, driver.Registered())

	socket := ctrl.Socket()
	require.NotNil(t, socket)
	assert.Equal(t, 0x300, socket.BasePort1)
	assert.Equal(t, 16, socket.NumPorts1)
	assert.Equal(t, pcmcia.IOWidth16, socket.Width)
	assert.Equal(t, 11, ctrl.IRQ())

	// Interrupts reach the driver while running.
	ctrl.Interrupt()
	assert.Equal(t, 1, driver.Interrupts())

	// Suspend blocks the driver without tearing anything down.
	require.NoError(t, ctrl.Suspend())
	assert.Equal(t, 1, card.Mapped(), "suspend must not unmap the window")
	require.NoError(t, ctrl.Resume())

	// Firmware download window: the driver idles the firmware through
	// the handed-off control, then restarts it.
	fw := driver.Hardware().Firmware
	require.NoError(t, fw.StopFirmware(true))
	assert.False(t, card.FirmwareRunning())
	require.NoError(t, fw.HardReset())
	assert.True(t, card.FirmwareRunning())

	// Removal.
	ctrl.Detach()
	assert.Equal(t, attach.StateUnattached, ctrl.State())
	assert.Equal(t, 0, card.Mapped(), "release must unmap the window")
	assert.False(t, card.Reserved())
	assert.False(t, driver.Registered())

	// Interrupts no longer reach the driver.
	ctrl.Interrupt()
	assert.Equal(t, 1, driver.Interrupts())

	// Detach again: idempotent.
	ctrl.Detach()
	assert.Equal(t, attach.StateUnattached, ctrl.State())

	// The trace stream recorded the whole story.
	var regs, states, scans int
	for _, ev := range logger.Events() {
		switch ev.Category {
		case log.CategoryRegister:
			regs++
		case log.CategoryState:
			states++
		case log.CategoryScan:
			scans++
		}
	}
	assert.GreaterOrEqual(t, regs, 15, "three resets worth of register traffic")
	assert.GreaterOrEqual(t, states, 6)
	assert.GreaterOrEqual(t, scans, 2, "index-0 rejection plus acceptance")
}

// TestLifecycleAgainstAbsentCard covers the insertion race where the card
// is yanked before configuration completes.
func TestLifecycleAgainstAbsentCard(t *testing.T) {
	card := sim.NewCard(sim.DefaultCardConfig())
	card.Eject()

	ctrl, err := attach.NewController(attach.Config{
		Driver:     &mock.Radio{},
		ResetSleep: func(time.Duration) {},
	})
	require.NoError(t, err)

	require.Error(t, ctrl.Attach(card))
	assert.Equal(t, attach.StateUnattached, ctrl.State())
	assert.False(t, card.Reserved())
	assert.Equal(t, 0, card.Mapped())
}
