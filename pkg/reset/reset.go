package reset

import (
	"errors"
	"fmt"
	"time"

	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
)

// SettleDelay is the fixed settle time after each register write in the
// reset sequence. The hardware contract specifies fixed delays; no
// timeouts or polling are involved.
const SettleDelay = time.Millisecond

// ErrDeviceAbsent indicates the card is physically gone. Register access
// against removed hardware is a guaranteed crash, so the sequence refuses
// to start.
var ErrDeviceAbsent = errors.New("device not present")

// Step identifies one step of the reset sequence.
type Step uint8

const (
	// StepSaveCOR reads and saves the original COR value.
	StepSaveCOR Step = iota + 1
	// StepSoftReset writes COR with the soft-reset bit set.
	StepSoftReset
	// StepReadCCSR reads CCSR to capture the memory width bit.
	StepReadCCSR
	// StepWriteCCSR writes the idle or run encoding to CCSR.
	StepWriteCCSR
	// StepRestoreCOR writes the saved COR back with soft-reset clear.
	StepRestoreCOR
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepSaveCOR:
		return "save-cor"
	case StepSoftReset:
		return "soft-reset"
	case StepReadCCSR:
		return "read-ccsr"
	case StepWriteCCSR:
		return "write-ccsr"
	case StepRestoreCOR:
		return "restore-cor"
	default:
		return "unknown"
	}
}

// RegisterAccessError reports a bus-level register access failure at a
// specific step of the reset sequence. The sequence aborts at the failing
// step with no rollback; a half-completed reset leaves the card idle and
// re-resettable, not in a dangerous state.
type RegisterAccessError struct {
	Step Step
	Err  error
}

// Error returns the failing step and underlying cause.
func (e *RegisterAccessError) Error() string {
	return fmt.Sprintf("register access failed at %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying bus error.
func (e *RegisterAccessError) Unwrap() error {
	return e.Err
}

// Sequencer performs the reset sequence. The zero value is usable; Logger
// and Sleep exist so tests can observe events and avoid real delays.
type Sequencer struct {
	// Logger receives a register trace event per step. Nil disables
	// tracing.
	Logger log.Logger

	// AttachmentID stamps trace events. May be empty.
	AttachmentID string

	// Sleep implements the settle delays. Nil means time.Sleep.
	Sleep func(time.Duration)
}

func (s *Sequencer) sleep() {
	if s.Sleep != nil {
		s.Sleep(SettleDelay)
		return
	}
	time.Sleep(SettleDelay)
}

func (s *Sequencer) trace(op log.Op, reg pcmcia.ConfigRegister, value uint8) {
	log.OrNoop(s.Logger).Log(log.NewRegisterEvent(s.AttachmentID, op, uint8(reg), value))
}

// Reset resets the card using the COR and CCSR configuration registers.
// If idle is true the firmware is halted after the reset, so that it can
// be safely rewritten; otherwise it is left running.
//
// The sequence:
//  1. read COR, save it
//  2. write COR with the soft-reset bit set, settle
//  3. read CCSR (the memory width bit must be the post-pulse value)
//  4. write CCSR with the idle or run encoding OR'd with the preserved
//     memory width bit, settle
//  5. write the saved COR back with the soft-reset bit clear, settle
func (s *Sequencer) Reset(dev pcmcia.Device, idle bool) error {
	if !dev.Present() {
		return ErrDeviceAbsent
	}

	// Save original COR value
	saveCOR, err := dev.ReadConfig(pcmcia.RegCOR)
	if err != nil {
		return &RegisterAccessError{Step: StepSaveCOR, Err: err}
	}
	s.trace(log.OpRead, pcmcia.RegCOR, saveCOR)

	// Soft-reset the card
	v := saveCOR | pcmcia.CORSoftReset
	if err := dev.WriteConfig(pcmcia.RegCOR, v); err != nil {
		return &RegisterAccessError{Step: StepSoftReset, Err: err}
	}
	s.trace(log.OpWrite, pcmcia.RegCOR, v)
	s.sleep()

	// Read CCSR after the reset pulse
	ccsr, err := dev.ReadConfig(pcmcia.RegCCSR)
	if err != nil {
		return &RegisterAccessError{Step: StepReadCCSR, Err: err}
	}
	s.trace(log.OpRead, pcmcia.RegCCSR, ccsr)

	// Start or stop the firmware. The memory width bit is preserved from
	// the value just read.
	v = pcmcia.CCSRRun
	if idle {
		v = pcmcia.CCSRIdle
	}
	v |= ccsr & pcmcia.CCSRMem16
	if err := dev.WriteConfig(pcmcia.RegCCSR, v); err != nil {
		return &RegisterAccessError{Step: StepWriteCCSR, Err: err}
	}
	s.trace(log.OpWrite, pcmcia.RegCCSR, v)
	s.sleep()

	// Restore the original COR configuration index
	v = saveCOR &^ pcmcia.CORSoftReset
	if err := dev.WriteConfig(pcmcia.RegCOR, v); err != nil {
		return &RegisterAccessError{Step: StepRestoreCOR, Err: err}
	}
	s.trace(log.OpWrite, pcmcia.RegCOR, v)
	s.sleep()

	return nil
}

// Reset runs the sequence with a default Sequencer (real delays, no
// tracing).
func Reset(dev pcmcia.Device, idle bool) error {
	var s Sequencer
	return s.Reset(dev, idle)
}
