package attach

// State represents the attachment lifecycle state. Only the Controller
// mutates it.
type State uint8

const (
	// StateUnattached indicates no card is configured.
	StateUnattached State = iota

	// StateConfiguring indicates socket configuration is in progress.
	StateConfiguring

	// StateRunning indicates the card is configured and handed off to
	// the radio driver.
	StateRunning

	// StateSuspended indicates the hardware is marked unavailable but
	// still configured.
	StateSuspended

	// StateReleasing indicates teardown is in progress.
	StateReleasing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnattached:
		return "UNATTACHED"
	case StateConfiguring:
		return "CONFIGURING"
	case StateRunning:
		return "RUNNING"
	case StateSuspended:
		return "SUSPENDED"
	case StateReleasing:
		return "RELEASING"
	default:
		return "UNKNOWN"
	}
}
