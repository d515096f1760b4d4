// Package cis selects a socket configuration from a card's CIS
// configuration table.
//
// The scan makes no assumptions about the card: voltage, I/O windows and
// Vpp come entirely from the table entries the bus runtime yields, with
// the table's default entry filling in fields a candidate omits. Real
// cards ship incomplete or inconsistent tables, so every per-entry check
// rejects and moves on rather than aborting the scan; only table
// exhaustion fails the whole selection.
package cis
