// Package reset drives the soft-reset / firmware idle-run sequence on
// Symbol-firmware cards.
//
// The sequence operates on two configuration registers: COR (which hosts
// the soft-reset trigger bit) and CCSR (which controls the firmware run
// state and carries the memory width bit). Ordering and the 1 ms settle
// delays after each write are part of the hardware contract, not tuning.
package reset
