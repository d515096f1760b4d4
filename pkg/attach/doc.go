// Package attach orchestrates the lifecycle of one card attachment:
// probe, socket configuration, hardware reset, handoff to the radio
// driver, and the suspend/resume and release transitions.
//
// The bus runtime serializes lifecycle events per device, so the
// controller assumes at most one transition is in flight at a time. The
// one concurrency hazard it does own is the interrupt path: the radio
// driver's interrupt handler may race a release, and the controller
// guarantees the handler never runs against an unmapped register window.
package attach
