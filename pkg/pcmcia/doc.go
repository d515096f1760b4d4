// Package pcmcia defines the contracts between the attach layer and the
// PCMCIA bus runtime.
//
// The bus runtime owns socket enumeration, low-level register access and
// resource accounting. This package models that collaborator as the Device
// interface, along with the data the bus hands the driver: parsed CIS
// configuration-table entries, configuration register names, and the
// resolved socket configuration the driver commits back to the bus.
//
// Nothing in this package touches hardware. Implementations of Device live
// in the bus runtime (or in pkg/sim and the test harness for development).
package pcmcia
