package booking

// State names the phases of the booking flow.
type State string

const (
	StateStep1      State = "step1"
	StateStep2      State = "step2"
	StateSubmitting State = "submitting"
	StateRedirected State = "redirected"
)

// Validity is the tri-state outcome of a field's format check.
type Validity int

const (
	ValidityUnknown Validity = iota
	ValidityValid
	ValidityInvalid
)

func (v Validity) String() string {
	switch v {
	case ValidityValid:
		return "valid"
	case ValidityInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Command asks the presentation layer to perform a side effect, such as
// scrolling an element into view. The machine never touches the
// environment itself.
type Command struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

const (
	CommandScroll = "scroll"

	// ScrollTargetForm is the container the form lives in.
	ScrollTargetForm = "form-container"
)

// Machine owns the step cursor, the accumulated draft and the per-field
// validity flags. It is not safe for concurrent use; each funnel
// session has exactly one writer.
type Machine struct {
	State    State              `json:"state"`
	Step     int                `json:"step"`
	Draft    Draft              `json:"draft"`
	Validity map[Field]Validity `json:"validity"`
}

// NewMachine returns a machine at step 1 with an empty draft.
func NewMachine() *Machine {
	return &Machine{
		State:    StateStep1,
		Step:     1,
		Validity: make(map[Field]Validity),
	}
}

// SetField mutates one draft field. For format-governed fields the
// validity entry is recomputed synchronously; it never reverts to
// unknown. Selecting a new date clears any previously chosen time,
// since a time from a different day must never persist.
func (m *Machine) SetField(f Field, value string) error {
	if m.State == StateSubmitting || m.State == StateRedirected {
		return ErrLocked
	}
	if !m.Draft.set(f, value) {
		// Unknown field names are routed around.
		return nil
	}
	if valid, governed := Validate(f, value); governed {
		if valid {
			m.Validity[f] = ValidityValid
		} else {
			m.Validity[f] = ValidityInvalid
		}
	}
	if f == FieldDate {
		m.Draft.Time = ""
	}
	return nil
}

// step1Governed fields are checked at the Step1 -> Step2 gate: format-governed
// fields must validate and car-year must be non-empty.
var step1Governed = []Field{
	FieldFirstName, FieldLastName, FieldEmail,
	FieldMobileNumber, FieldCarMake, FieldCarModel,
}

// Incomplete returns the step-1 fields that currently block
// advancement, in a stable order.
func (m *Machine) Incomplete() []Field {
	var blocked []Field
	for _, f := range step1Governed {
		if valid, _ := Validate(f, m.Draft.Get(f)); !valid {
			blocked = append(blocked, f)
		}
	}
	if m.Draft.CarYear == "" {
		blocked = append(blocked, FieldCarYear)
	}
	return blocked
}

// Advance moves Step1 -> Step2 when the gate holds. The returned
// commands carry presentation side effects for the caller to execute.
func (m *Machine) Advance() ([]Command, error) {
	if m.State != StateStep1 {
		return nil, ErrInvalidTransition
	}
	if len(m.Incomplete()) > 0 {
		return nil, ErrStepIncomplete
	}
	m.State = StateStep2
	m.Step = 2
	return []Command{{Kind: CommandScroll, Target: ScrollTargetForm}}, nil
}

// Back moves Step2 -> Step1. Always permitted, performs no validation
// and preserves all captured data.
func (m *Machine) Back() ([]Command, error) {
	if m.State != StateStep2 {
		return nil, ErrInvalidTransition
	}
	m.State = StateStep1
	m.Step = 1
	return []Command{{Kind: CommandScroll, Target: ScrollTargetForm}}, nil
}

// BeginSubmit moves Step2 -> Submitting. A second attempt while
// submitting reports ErrAlreadySubmitting so the caller can treat it as
// a no-op.
func (m *Machine) BeginSubmit() error {
	switch m.State {
	case StateSubmitting:
		return ErrAlreadySubmitting
	case StateStep2:
		if m.Draft.Date == "" || m.Draft.Time == "" {
			return ErrScheduleIncomplete
		}
		m.State = StateSubmitting
		return nil
	default:
		return ErrInvalidTransition
	}
}

// CompleteSubmit moves Submitting -> Redirected. This is the only exit
// from Submitting and is unconditional: it runs whether or not the
// lead webhook succeeded.
func (m *Machine) CompleteSubmit() {
	if m.State == StateSubmitting {
		m.State = StateRedirected
	}
}
