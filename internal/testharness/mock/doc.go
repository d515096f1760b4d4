// Package mock provides scripted bus-device and radio-driver doubles for
// testing the attach layer.
//
// mock.Device records every register access and resource call so tests
// can assert exact sequencing; mock.Radio records the driver entry points
// the controller is expected to drive. Behavior is overridden per test
// through the Handlers structs.
package mock
