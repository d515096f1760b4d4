// Package sim provides a simulated Symbol-firmware PCMCIA card and
// socket for development and testing.
//
// sim.Card implements pcmcia.Device over an in-memory register file and
// CIS table, with enough behavioral fidelity for the attach layer: the
// soft-reset pulse idles the firmware, CCSR writes control the run state,
// and resource accounting (I/O reservation, IRQ, configuration, window
// mapping) is tracked so tests can assert nothing leaks. Fault-injection
// hooks cover the failure paths real hardware produces: card removal,
// register access errors and denied reservations.
package sim
