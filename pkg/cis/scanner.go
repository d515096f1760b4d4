package cis

import (
	"errors"
	"fmt"

	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
)

// ErrNoMatchingConfig indicates the CIS configuration table was exhausted
// without an acceptable entry.
var ErrNoMatchingConfig = errors.New("no matching CIS configuration")

// errRejected is the per-entry rejection signal handed back to
// Device.LoopConfig so it advances to the next entry.
var errRejected = errors.New("entry rejected")

// NoMatchError is returned when the scan exhausts the table. It preserves
// whether any entry was rejected solely for a voltage mismatch, which
// drives the operator hint about the ignore-voltage override.
type NoMatchError struct {
	// VoltageRejected is true when at least one entry failed only the
	// voltage check.
	VoltageRejected bool
}

// Error describes the failure.
func (e *NoMatchError) Error() string {
	if e.VoltageRejected {
		return "no matching CIS configuration (voltage mismatch)"
	}
	return "no matching CIS configuration"
}

// Is reports equivalence with ErrNoMatchingConfig.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatchingConfig
}

// Options configures a scan.
type Options struct {
	// RequestedVcc is the socket operating voltage in tenths of a volt
	// (50 = 5.0V).
	RequestedVcc int

	// IgnoreVoltage permits entries whose declared voltage mismatches
	// RequestedVcc. Some cards have buggy CIS tables that omit the
	// entry for a voltage they do support; this is the workaround.
	IgnoreVoltage bool

	// Logger receives one scan event per examined entry. Nil disables
	// tracing.
	Logger log.Logger

	// AttachmentID stamps trace events. May be empty.
	AttachmentID string
}

// Scanner iterates a card's CIS configuration table and selects the first
// acceptable entry. A Scanner is single-use per scan; create one per
// attachment attempt.
type Scanner struct {
	opts            Options
	logger          log.Logger
	voltageRejected bool
}

// NewScanner creates a scanner with the given options.
func NewScanner(opts Options) *Scanner {
	return &Scanner{opts: opts, logger: log.OrNoop(opts.Logger)}
}

// Select scans the device's configuration table and returns the resolved
// socket configuration of the first entry that passes validation and
// whose I/O range the bus can reserve. On exhaustion it returns a
// *NoMatchError (matching ErrNoMatchingConfig).
//
// The accepted entry's I/O reservation is left held for the caller to
// commit; every rejected entry's partial claims are released via
// Device.Disable before the scan moves on.
func (s *Scanner) Select(dev pcmcia.Device) (*pcmcia.SocketConfig, error) {
	var match *pcmcia.SocketConfig

	err := dev.LoopConfig(func(entry, dflt *pcmcia.ConfigEntry) error {
		cfg, reason := s.check(dev, entry, dflt)
		if cfg == nil {
			s.logger.Log(log.NewScanEvent(s.opts.AttachmentID, entry.Index, false, reason))
			// Release anything the entry may have claimed before
			// moving to the next one.
			dev.Disable()
			return fmt.Errorf("%w: %s", errRejected, reason)
		}
		// reason may carry a note for an accepted entry (ignored Vcc
		// mismatch).
		s.logger.Log(log.NewScanEvent(s.opts.AttachmentID, entry.Index, true, reason))
		match = cfg
		return nil
	})
	if err != nil {
		return nil, &NoMatchError{VoltageRejected: s.voltageRejected}
	}
	return match, nil
}

// check validates one entry against the scan options and derives its
// socket configuration. It returns nil and a reason when the entry is
// rejected; for an accepted entry the reason may carry a note.
func (s *Scanner) check(dev pcmcia.Device, entry, dflt *pcmcia.ConfigEntry) (*pcmcia.SocketConfig, string) {
	// Index 0 is the reserved default marker, never a real configuration.
	if entry.Index == 0 {
		return nil, "reserved index 0"
	}

	// Voltage check, falling back to the default entry when the
	// candidate declares nothing. Note that CIS values need rescaling.
	// A card that declares no voltage anywhere passes implicitly.
	note := ""
	if entry.Vcc.Present {
		mismatch, ok := s.checkVcc(entry.Vcc)
		if !ok {
			return nil, mismatch
		}
		note = mismatch
	} else if dflt.Vcc.Present {
		mismatch, ok := s.checkVcc(dflt.Vcc)
		if !ok {
			return nil, mismatch
		}
		note = mismatch
	}

	cfg := &pcmcia.SocketConfig{
		Index:     entry.Index,
		EnableIRQ: true,
	}

	// Vpp: entry, else default, else left unset.
	if entry.Vpp.Present {
		cfg.Vpp = entry.Vpp.Tenths()
	} else if dflt.Vpp.Present {
		cfg.Vpp = dflt.Vpp.Tenths()
	}

	// I/O window settings. A card declaring no window anywhere is a
	// memory-only configuration and is accepted with no ports reserved.
	io := &entry.IO
	if entry.IO.NumWindows == 0 {
		io = &dflt.IO
	}
	if io.NumWindows > 0 {
		cfg.Width = pcmcia.IOWidthAuto
		if !io.Supports8Bit {
			cfg.Width = pcmcia.IOWidth16
		}
		if !io.Supports16Bit {
			cfg.Width = pcmcia.IOWidth8
		}
		cfg.BasePort1 = io.Win[0].Base
		cfg.NumPorts1 = io.Win[0].Len
		if io.NumWindows > 1 {
			cfg.BasePort2 = io.Win[1].Base
			cfg.NumPorts2 = io.Win[1].Len
		}

		// This reserves I/O space but doesn't actually enable it.
		// The range may be occupied; that only disqualifies this
		// entry, not the scan.
		if err := dev.RequestIO(cfg); err != nil {
			return nil, fmt.Sprintf("I/O reservation denied: %v", err)
		}
	}

	return cfg, note
}

// checkVcc compares a declared voltage against the requested one. ok is
// false when the mismatch rejects the entry; on an ignored mismatch ok is
// true and the returned string carries the note.
func (s *Scanner) checkVcc(vcc pcmcia.PowerDesc) (string, bool) {
	declared := vcc.Tenths()
	if declared == s.opts.RequestedVcc {
		return "", true
	}
	if s.opts.IgnoreVoltage {
		return fmt.Sprintf("Vcc mismatch ignored (socket %d, CIS %d)", s.opts.RequestedVcc, declared), true
	}
	s.voltageRejected = true
	return fmt.Sprintf("Vcc mismatch (socket %d, CIS %d)", s.opts.RequestedVcc, declared), false
}
