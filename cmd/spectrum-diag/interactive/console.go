// Package interactive provides the interactive command-line interface
// for spectrum-diag.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/spectrum24/spectrum-go/pkg/attach"
	"github.com/spectrum24/spectrum-go/pkg/cis"
	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/pcmcia"
	"github.com/spectrum24/spectrum-go/pkg/reset"
	"github.com/spectrum24/spectrum-go/pkg/sim"
)

// Config provides the attach settings to the console. The interactive
// layer sees only what it needs; flag parsing stays in the main package.
type Config interface {
	// RequestedVcc returns the socket operating voltage in tenths of a
	// volt.
	RequestedVcc() int

	// IgnoreVoltage reports whether CIS voltage mismatches are allowed.
	IgnoreVoltage() bool
}

// Console handles interactive mode for spectrum-diag. It owns one
// simulated card, one attachment controller, and the trace tail.
type Console struct {
	card   *sim.Card
	ctrl   *attach.Controller
	driver *consoleRadio
	trace  *log.MemoryLogger
	config Config
	rl     *readline.Instance
}

// New creates a new interactive console around the given card. The
// tracer, when non-nil, receives every trace event in addition to the
// console's own tail.
func New(card *sim.Card, cfg Config, tracer log.Logger) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "spectrum> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{
		card:   card,
		trace:  &log.MemoryLogger{},
		config: cfg,
		rl:     rl,
	}
	c.driver = &consoleRadio{out: rl.Stdout()}

	ctrl, err := attach.NewController(attach.Config{
		RequestedVcc:  cfg.RequestedVcc(),
		IgnoreVoltage: cfg.IgnoreVoltage(),
		Driver:        c.driver,
		Logger:        log.Tee(c.trace, tracer),
	})
	if err != nil {
		rl.Close()
		return nil, err
	}
	c.ctrl = ctrl

	return c, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "attach", "a":
			c.cmdAttach()

		case "detach", "d":
			c.cmdDetach()

		case "suspend":
			c.cmdSuspend()

		case "resume":
			c.cmdResume()

		case "reset":
			c.cmdReset(args)

		case "eject":
			c.cmdEject()

		case "insert":
			c.cmdInsert()

		case "irq":
			c.cmdIRQ()

		case "status", "s":
			c.cmdStatus()

		case "entries", "e":
			c.cmdEntries()

		case "trace", "t":
			c.cmdTrace(args)

		case "deny-io":
			c.cmdDenyIO(args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Spectrum Diagnostic Commands:
  Lifecycle:
    attach             - Attach and configure the card
    detach             - Release the attachment
    suspend            - Suspend (firmware idled, resources held)
    resume             - Resume from suspend (firmware restarted)
    reset [idle]       - Reset the firmware; 'idle' halts it for download

  Card Simulation:
    eject              - Yank the card
    insert             - Re-insert the card
    irq                - Fire a hardware interrupt
    deny-io on|off     - Make I/O reservations fail

  Inspection:
    status             - Show attachment and card state
    entries            - Show the card's CIS configuration table
    trace [n]          - Show the last n trace events (default 10)

  General:
    help               - Show this help
    quit               - Exit`)
}

// cmdAttach handles the attach command.
func (c *Console) cmdAttach() {
	start := time.Now()
	if err := c.ctrl.Attach(c.card); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Attach failed: %v\n", err)
		if errors.Is(err, cis.ErrNoMatchingConfig) && !c.config.IgnoreVoltage() {
			fmt.Fprintln(c.rl.Stdout(), "  Hint: retry with -ignore-voltage if the card's CIS table is known buggy")
		}
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Attached in %s (id %s)\n",
		time.Since(start).Round(time.Millisecond), shortID(c.ctrl.ID()))
	if s := c.ctrl.Socket(); s != nil {
		fmt.Fprintf(c.rl.Stdout(), "  I/O 0x%x-0x%x (%s), IRQ %d\n",
			s.BasePort1, s.BasePort1+s.NumPorts1-1, s.Width, c.ctrl.IRQ())
	}
}

// cmdDetach handles the detach command.
func (c *Console) cmdDetach() {
	c.ctrl.Detach()
	fmt.Fprintf(c.rl.Stdout(), "Detached (state %s)\n", c.ctrl.State())
}

// cmdSuspend handles the suspend command.
func (c *Console) cmdSuspend() {
	if err := c.ctrl.Suspend(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Suspend failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Suspended")
}

// cmdResume handles the resume command.
func (c *Console) cmdResume() {
	if err := c.ctrl.Resume(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Resume failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Resumed, firmware running")
}

// cmdReset handles the reset command. Outside an attachment it drives
// the sequence directly against the card; inside one it goes through the
// firmware control handed to the radio driver, as a firmware download
// would.
func (c *Console) cmdReset(args []string) {
	idle := len(args) > 0 && args[0] == "idle"

	var err error
	if fw := c.driver.firmware(); fw != nil {
		if idle {
			err = fw.StopFirmware(true)
		} else {
			err = fw.HardReset()
		}
	} else {
		seq := reset.Sequencer{Logger: c.trace}
		err = seq.Reset(c.card, idle)
	}
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Reset failed: %v\n", err)
		return
	}
	if idle {
		fmt.Fprintln(c.rl.Stdout(), "Reset complete, firmware idle")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Reset complete, firmware running")
	}
}

// cmdEject handles the eject command.
func (c *Console) cmdEject() {
	c.card.Eject()
	fmt.Fprintln(c.rl.Stdout(), "Card ejected")
	if c.ctrl.State() != attach.StateUnattached {
		fmt.Fprintln(c.rl.Stdout(), "  Attachment still holds resources; 'detach' to release them")
	}
}

// cmdInsert handles the insert command.
func (c *Console) cmdInsert() {
	c.card.Insert()
	fmt.Fprintln(c.rl.Stdout(), "Card inserted")
}

// cmdIRQ fires a simulated hardware interrupt.
func (c *Console) cmdIRQ() {
	before := c.driver.interrupts()
	c.ctrl.Interrupt()
	if c.driver.interrupts() == before {
		fmt.Fprintln(c.rl.Stdout(), "Interrupt dropped (no live register window)")
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Interrupt delivered to driver")
}

// cmdStatus shows the attachment and card state.
func (c *Console) cmdStatus() {
	fmt.Fprintln(c.rl.Stdout(), "\nAttachment Status")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  State:          %s\n", c.ctrl.State())
	if id := c.ctrl.ID(); id != "" {
		fmt.Fprintf(c.rl.Stdout(), "  Attachment ID:  %s\n", id)
	}
	if s := c.ctrl.Socket(); s != nil {
		fmt.Fprintf(c.rl.Stdout(), "  CIS Index:      %d\n", s.Index)
		fmt.Fprintf(c.rl.Stdout(), "  I/O Window:     0x%x-0x%x (%s)\n",
			s.BasePort1, s.BasePort1+s.NumPorts1-1, s.Width)
		fmt.Fprintf(c.rl.Stdout(), "  IRQ:            %d\n", c.ctrl.IRQ())
	}

	present := "present"
	if !c.card.Present() {
		present = "REMOVED"
	}
	firmware := "idle"
	if c.card.FirmwareRunning() {
		firmware = "running"
	}
	fmt.Fprintln(c.rl.Stdout(), "\nCard")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  Card:           %s\n", present)
	fmt.Fprintf(c.rl.Stdout(), "  Identity:       manf 0x%04x card 0x%04x\n",
		c.card.Identity().Manufacturer, c.card.Identity().Card)
	fmt.Fprintf(c.rl.Stdout(), "  COR:            0x%02x\n", c.card.COR())
	fmt.Fprintf(c.rl.Stdout(), "  CCSR:           0x%02x (firmware %s)\n", c.card.CCSR(), firmware)
	fmt.Fprintf(c.rl.Stdout(), "  I/O reserved:   %t\n", c.card.Reserved())
	fmt.Fprintf(c.rl.Stdout(), "  Configured:     %t\n", c.card.Configured())
	fmt.Fprintf(c.rl.Stdout(), "  Mapped windows: %d\n", c.card.Mapped())
	fmt.Fprintln(c.rl.Stdout())
}

// cmdEntries dumps the card's CIS configuration table by scanning it the
// way the attach path would, accepting nothing.
func (c *Console) cmdEntries() {
	fmt.Fprintln(c.rl.Stdout(), "\nCIS Configuration Table")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	err := c.card.LoopConfig(func(entry, dflt *pcmcia.ConfigEntry) error {
		c.printEntry(entry, dflt)
		return errors.New("dump only")
	})
	if err != nil && !errors.Is(err, sim.ErrNoEntry) {
		fmt.Fprintf(c.rl.Stdout(), "  Error: %v\n", err)
	}
	fmt.Fprintln(c.rl.Stdout())
}

func (c *Console) printEntry(entry, dflt *pcmcia.ConfigEntry) {
	fmt.Fprintf(c.rl.Stdout(), "  Entry %d:\n", entry.Index)

	vcc := entry.Vcc
	src := ""
	if !vcc.Present {
		vcc = dflt.Vcc
		src = " (default)"
	}
	if vcc.Present {
		fmt.Fprintf(c.rl.Stdout(), "    Vcc: %.1fV%s\n", float64(vcc.Tenths())/10, src)
	} else {
		fmt.Fprintln(c.rl.Stdout(), "    Vcc: unspecified")
	}
	if entry.Vpp.Present {
		fmt.Fprintf(c.rl.Stdout(), "    Vpp: %.1fV\n", float64(entry.Vpp.Tenths())/10)
	}

	io := entry.IO
	src = ""
	if io.NumWindows == 0 && dflt.IO.NumWindows > 0 {
		io = dflt.IO
		src = " (default)"
	}
	if io.NumWindows == 0 {
		fmt.Fprintln(c.rl.Stdout(), "    I/O: none (memory-only)")
		return
	}
	for i := 0; i < io.NumWindows && i < len(io.Win); i++ {
		w := io.Win[i]
		fmt.Fprintf(c.rl.Stdout(), "    I/O window %d: 0x%x-0x%x%s\n", i, w.Base, w.Base+w.Len-1, src)
	}
	fmt.Fprintf(c.rl.Stdout(), "    Width: 8-bit=%t 16-bit=%t\n", io.Supports8Bit, io.Supports16Bit)
}

// cmdTrace shows the tail of the trace event stream.
func (c *Console) cmdTrace(args []string) {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			fmt.Fprintln(c.rl.Stdout(), "Usage: trace [n]")
			return
		}
		n = v
	}

	events := c.trace.Events()
	if len(events) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No trace events recorded")
		return
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}

	for _, ev := range events {
		fmt.Fprintf(c.rl.Stdout(), "[%s] %s\n",
			ev.Timestamp.Format("15:04:05.000"), formatEvent(ev))
	}
}

// formatEvent renders one trace event as a single line.
func formatEvent(ev log.Event) string {
	switch ev.Category {
	case log.CategoryRegister:
		if r := ev.Register; r != nil {
			return fmt.Sprintf("%-8s %s reg %s = 0x%02x",
				ev.Category, r.Op, pcmcia.ConfigRegister(r.Register), r.Value)
		}
	case log.CategoryState:
		if s := ev.StateChange; s != nil {
			return fmt.Sprintf("%-8s %s -> %s", ev.Category, s.From, s.To)
		}
	case log.CategoryScan:
		if s := ev.Scan; s != nil {
			verdict := "rejected"
			if s.Accepted {
				verdict = "accepted"
			}
			line := fmt.Sprintf("%-8s entry %d %s", ev.Category, s.Index, verdict)
			if s.Reason != "" {
				line += " (" + s.Reason + ")"
			}
			return line
		}
	case log.CategoryError:
		if e := ev.Error; e != nil {
			line := fmt.Sprintf("%-8s %s: %s", ev.Category, e.Step, e.Message)
			if e.Hint != "" {
				line += " [hint: " + e.Hint + "]"
			}
			return line
		}
	}
	return ev.Category.String()
}

// cmdDenyIO toggles the simulated I/O range conflict.
func (c *Console) cmdDenyIO(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: deny-io on|off")
		return
	}
	switch args[0] {
	case "on":
		c.card.DenyIO = true
		fmt.Fprintln(c.rl.Stdout(), "I/O reservations will fail")
	case "off":
		c.card.DenyIO = false
		fmt.Fprintln(c.rl.Stdout(), "I/O reservations will succeed")
	default:
		fmt.Fprintln(c.rl.Stdout(), "Usage: deny-io on|off")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
