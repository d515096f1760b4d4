package log

import "time"

// Event represents a hardware trace event captured at any layer of the
// attach path. CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// AttachmentID uniquely identifies the attachment (UUID).
	AttachmentID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Register    *RegisterEvent    `cbor:"4,keyasint,omitempty"` // Configuration register access
	StateChange *StateChangeEvent `cbor:"5,keyasint,omitempty"` // Lifecycle state transition
	Scan        *ScanEvent        `cbor:"6,keyasint,omitempty"` // CIS entry decision
	Error       *ErrorEventData   `cbor:"7,keyasint,omitempty"` // Errors at any layer
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRegister is a configuration register access.
	CategoryRegister Category = 0
	// CategoryState is a lifecycle state transition.
	CategoryState Category = 1
	// CategoryScan is a CIS configuration-table decision.
	CategoryScan Category = 2
	// CategoryError is an error at any layer.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRegister:
		return "register"
	case CategoryState:
		return "state"
	case CategoryScan:
		return "scan"
	case CategoryError:
		return "error"
	default:
		return "unknown"
	}
}

// Op indicates the direction of a register access.
type Op uint8

const (
	// OpRead is a register read.
	OpRead Op = 0
	// OpWrite is a register write.
	OpWrite Op = 1
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// RegisterEvent is a configuration register access.
type RegisterEvent struct {
	// Op is the access direction.
	Op Op `cbor:"1,keyasint"`

	// Register is the configuration register offset.
	Register uint8 `cbor:"2,keyasint"`

	// Value is the value read or written.
	Value uint8 `cbor:"3,keyasint"`
}

// StateChangeEvent is a lifecycle state transition.
type StateChangeEvent struct {
	// From is the previous state name.
	From string `cbor:"1,keyasint"`

	// To is the new state name.
	To string `cbor:"2,keyasint"`
}

// ScanEvent is one CIS configuration-table entry decision.
type ScanEvent struct {
	// Index is the configuration index of the entry.
	Index int `cbor:"1,keyasint"`

	// Accepted reports whether the entry was selected.
	Accepted bool `cbor:"2,keyasint"`

	// Reason names the rejection cause, or carries a note for an
	// accepted entry (e.g. an ignored voltage mismatch).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData is an error at any layer of the attach path.
type ErrorEventData struct {
	// Step names the failing operation.
	Step string `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`

	// Hint carries operator guidance, when any applies.
	Hint string `cbor:"3,keyasint,omitempty"`
}

// NewRegisterEvent builds a register access event stamped with the current
// time.
func NewRegisterEvent(attachmentID string, op Op, register, value uint8) Event {
	return Event{
		Timestamp:    time.Now(),
		AttachmentID: attachmentID,
		Category:     CategoryRegister,
		Register:     &RegisterEvent{Op: op, Register: register, Value: value},
	}
}

// NewStateChangeEvent builds a state transition event stamped with the
// current time.
func NewStateChangeEvent(attachmentID, from, to string) Event {
	return Event{
		Timestamp:    time.Now(),
		AttachmentID: attachmentID,
		Category:     CategoryState,
		StateChange:  &StateChangeEvent{From: from, To: to},
	}
}

// NewScanEvent builds a CIS scan decision event stamped with the current
// time.
func NewScanEvent(attachmentID string, index int, accepted bool, reason string) Event {
	return Event{
		Timestamp:    time.Now(),
		AttachmentID: attachmentID,
		Category:     CategoryScan,
		Scan:         &ScanEvent{Index: index, Accepted: accepted, Reason: reason},
	}
}

// NewErrorEvent builds an error event stamped with the current time.
func NewErrorEvent(attachmentID, step, message, hint string) Event {
	return Event{
		Timestamp:    time.Now(),
		AttachmentID: attachmentID,
		Category:     CategoryError,
		Error:        &ErrorEventData{Step: step, Message: message, Hint: hint},
	}
}
