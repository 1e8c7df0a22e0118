package roll

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

// State is the attendance outcome recorded for a student on a roll.
type State string

const (
	StateUnmark  State = "unmark"
	StatePresent State = "present"
	StateAbsent  State = "absent"
	StateLate    State = "late"
)

var (
	AllStates = []State{StateUnmark, StatePresent, StateAbsent, StateLate}

	errUnknownState = errors.New("unknown roll state")
)

func (s State) IsValid() bool {
	switch s {
	case StateUnmark, StatePresent, StateAbsent, StateLate:
		return true
	}
	return false
}

// ParseState cleans and validates a roll state label.
func ParseState(s string) (State, error) {
	st := State(core.CleanString(s, true /* lower */))
	if !st.IsValid() {
		return "", errors.Wrapf(errUnknownState, "%q", s)
	}
	return st, nil
}

// StateStrings converts states to their labels.
func StateStrings(states []State) []string {
	strs := make([]string, 0, len(states))
	for _, s := range states {
		strs = append(strs, string(s))
	}
	return strs
}

// Roll is one attendance-taking session.
type Roll struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"` // UTC
}

// Outcome is the state of one student on one roll.
type Outcome struct {
	ID        int   `json:"id" db:"id"`
	RollID    int   `json:"roll_id" db:"roll_id"`
	StudentID int   `json:"student_id" db:"student_id"`
	State     State `json:"state" db:"state"`
}

// NewRoll contains information needed to create a new Roll.
type NewRoll struct {
	Name        string    `json:"name" validate:"required,notblank"`
	CompletedAt time.Time `json:"completed_at"`
}

func (nr *NewRoll) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	return validate.Struct(nr)
}

// NewOutcome records a student's state on a roll.
type NewOutcome struct {
	StudentID int    `json:"student_id" validate:"required,min=1"`
	State     string `json:"state" validate:"required,rollstate"`
}

type NewOutcomes struct {
	Outcomes []NewOutcome `json:"outcomes" validate:"required,min=1,dive"`
}

func (no *NewOutcomes) Validate(validate *validator.Validate) error {
	for i := range no.Outcomes {
		no.Outcomes[i].State = core.CleanString(no.Outcomes[i].State, true /* lower */)
	}
	return validate.Struct(no)
}
