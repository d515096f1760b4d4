package cis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectrum24/spectrum-go/internal/testharness/mock"
	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
)

func vcc(tenths int) pcmcia.PowerDesc {
	return pcmcia.PowerDesc{Present: true, Nominal: tenths * pcmcia.VoltageScale}
}

func oneWindow(base, length int, w8, w16 bool) pcmcia.IODesc {
	return pcmcia.IODesc{
		NumWindows:    1,
		Win:           [2]pcmcia.IOSpan{{Base: base, Len: length}},
		Supports8Bit:  w8,
		Supports16Bit: w16,
	}
}

func TestSelectDefaultVoltageFallback(t *testing.T) {
	// Entry declares no voltage; the default entry's 5.0V matches the
	// requested 5.0V. 16-bit-only window at 0x300.
	dev := &mock.Device{
		Default: pcmcia.ConfigEntry{Vcc: vcc(50), Vpp: vcc(120)},
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, IO: oneWindow(0x300, 16, false, true)},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Index)
	assert.Equal(t, 0x300, cfg.BasePort1)
	assert.Equal(t, 16, cfg.NumPorts1)
	assert.Equal(t, pcmcia.IOWidth16, cfg.Width)
	assert.Equal(t, 120, cfg.Vpp, "Vpp resolved from the default entry")
	assert.True(t, cfg.EnableIRQ)
	assert.Equal(t, 1, dev.Reservations(), "accepted entry's reservation left held")
}

func TestSelectNeverPicksIndexZero(t *testing.T) {
	// Index 0 is structurally perfect but reserved; the scan must skip
	// it even when nothing else matches.
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 0, Vcc: vcc(50), IO: oneWindow(0x300, 16, false, true)},
		},
	}

	_, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.ErrorIs(t, err, ErrNoMatchingConfig)
}

func TestSelectVoltageMismatchRejects(t *testing.T) {
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(33), IO: oneWindow(0x300, 16, false, true)},
		},
	}

	_, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.ErrorIs(t, err, ErrNoMatchingConfig)

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.True(t, noMatch.VoltageRejected, "voltage-only rejection must be distinguishable")
	assert.Equal(t, 0, dev.Reservations(), "no reservation held after a failed scan")
}

func TestSelectVoltageMismatchContinuesToNextEntry(t *testing.T) {
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(33), IO: oneWindow(0x300, 16, false, true)},
			{Index: 2, Vcc: vcc(50), IO: oneWindow(0x320, 32, true, true)},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Index)
	assert.Equal(t, 0x320, cfg.BasePort1)
}

func TestSelectIgnoreVoltageOverride(t *testing.T) {
	// With the override set, a mismatched but otherwise valid first
	// entry is selected.
	logger := &log.MemoryLogger{}
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(33), IO: oneWindow(0x300, 16, false, true)},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50, IgnoreVoltage: true, Logger: logger}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Index)

	events := logger.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].Scan.Accepted)
	assert.Contains(t, events[0].Scan.Reason, "mismatch ignored")
}

func TestSelectMemoryOnlyEntry(t *testing.T) {
	// Neither the entry nor the default declares a window: accepted
	// with zero ports and no reservation attempted.
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(50)},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.NumPorts1)
	assert.Equal(t, 0, dev.Reservations())
}

func TestSelectDefaultWindowFallback(t *testing.T) {
	dev := &mock.Device{
		Default: pcmcia.ConfigEntry{IO: oneWindow(0x340, 64, true, false)},
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(50)},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 0x340, cfg.BasePort1)
	assert.Equal(t, 64, cfg.NumPorts1)
	assert.Equal(t, pcmcia.IOWidth8, cfg.Width, "16-bit unsupported forces 8-bit")
}

func TestSelectWidthDerivation(t *testing.T) {
	tests := []struct {
		name string
		w8   bool
		w16  bool
		want pcmcia.IOWidth
	}{
		{"BothDeclared", true, true, pcmcia.IOWidthAuto},
		{"Only16Bit", false, true, pcmcia.IOWidth16},
		{"Only8Bit", true, false, pcmcia.IOWidth8},
		{"NeitherDeclared", false, false, pcmcia.IOWidth8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &mock.Device{
				Entries: []pcmcia.ConfigEntry{
					{Index: 1, Vcc: vcc(50), IO: oneWindow(0x300, 16, tt.w8, tt.w16)},
				},
			}

			cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Width)
		})
	}
}

func TestSelectSecondWindow(t *testing.T) {
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{
				Index: 1,
				Vcc:   vcc(50),
				IO: pcmcia.IODesc{
					NumWindows:    2,
					Win:           [2]pcmcia.IOSpan{{Base: 0x300, Len: 16}, {Base: 0x380, Len: 8}},
					Supports16Bit: true,
				},
			},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 0x300, cfg.BasePort1)
	assert.Equal(t, 16, cfg.NumPorts1)
	assert.Equal(t, 0x380, cfg.BasePort2)
	assert.Equal(t, 8, cfg.NumPorts2)
}

func TestSelectEntryVppPreferredOverDefault(t *testing.T) {
	dev := &mock.Device{
		Default: pcmcia.ConfigEntry{Vpp: vcc(120)},
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(50), Vpp: vcc(50)},
		},
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Vpp)
}

func TestSelectReservationFailureSkipsEntry(t *testing.T) {
	denied := errors.New("range occupied")
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 1, Vcc: vcc(50), IO: oneWindow(0x300, 16, false, true)},
			{Index: 2, Vcc: vcc(50), IO: oneWindow(0x320, 16, false, true)},
		},
	}
	calls := 0
	dev.Handlers.OnRequestIO = func(cfg *pcmcia.SocketConfig) error {
		calls++
		if cfg.BasePort1 == 0x300 {
			return denied
		}
		return nil
	}

	cfg, err := NewScanner(Options{RequestedVcc: 50}).Select(dev)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Index)
	assert.Equal(t, 2, calls, "both entries attempted reservation")
	assert.GreaterOrEqual(t, dev.Disables(), 1, "rejected entry's claims released")
	assert.Equal(t, 1, dev.Reservations(), "only the accepted entry's reservation held")
}

func TestSelectRejectionsAreTraced(t *testing.T) {
	logger := &log.MemoryLogger{}
	dev := &mock.Device{
		Entries: []pcmcia.ConfigEntry{
			{Index: 0},
			{Index: 1, Vcc: vcc(33), IO: oneWindow(0x300, 16, false, true)},
			{Index: 2, Vcc: vcc(50), IO: oneWindow(0x320, 16, false, true)},
		},
	}

	_, err := NewScanner(Options{RequestedVcc: 50, Logger: logger, AttachmentID: "att-1"}).Select(dev)
	require.NoError(t, err)

	events := logger.Events()
	require.Len(t, events, 3)
	assert.False(t, events[0].Scan.Accepted)
	assert.Contains(t, events[0].Scan.Reason, "index 0")
	assert.False(t, events[1].Scan.Accepted)
	assert.Contains(t, events[1].Scan.Reason, "Vcc mismatch")
	assert.True(t, events[2].Scan.Accepted)
}
