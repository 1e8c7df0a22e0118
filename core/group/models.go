package group

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
)

// Group is a saved filter definition plus the metadata of its last evaluation.
type Group struct {
	ID            int        `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	NumberOfWeeks int        `json:"number_of_weeks" db:"number_of_weeks"`
	RollStates    string     `json:"roll_states" db:"roll_states"` // comma-separated roll.State labels
	Incidents     int        `json:"incidents" db:"incidents"`
	Ltmt          Comparator `json:"ltmt" db:"ltmt"`
	RunAt         null.Time  `json:"run_at" db:"run_at"` // UTC
	StudentCount  null.Int   `json:"student_count" db:"student_count"`
}

// Membership links a student to a group it matched on the last filter run.
type Membership struct {
	GroupID       int `json:"group_id" db:"group_id"`
	StudentID     int `json:"student_id" db:"student_id"`
	IncidentCount int `json:"incident_count" db:"incident_count"`
}

// GroupStudent is a member of a group, as listed by the API.
type GroupStudent struct {
	ID            int    `json:"id" db:"id"`
	FirstName     string `json:"first_name" db:"first_name"`
	LastName      string `json:"last_name" db:"last_name"`
	FullName      string `json:"full_name" db:"full_name"`
	IncidentCount int    `json:"incident_count" db:"incident_count"`
}

// RunSummary reports the outcome of a filter run.
type RunSummary struct {
	Message    string     `json:"message"`
	Groups     int        `json:"groups"`
	Failed     []RunError `json:"failed,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

type RunError struct {
	GroupID   int    `json:"group_id"`
	GroupName string `json:"group_name"`
	Error     string `json:"error"`
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name          string `json:"name" validate:"required,notblank"`
	NumberOfWeeks int    `json:"number_of_weeks" validate:"required,min=1"`
	RollStates    string `json:"roll_states" validate:"required,rollstates"`
	Incidents     int    `json:"incidents" validate:"min=0"`
	Ltmt          string `json:"ltmt" validate:"required,ltmt"`
}

func (ng *NewGroup) clean() {
	ng.Name = core.CleanString(ng.Name)
	ng.RollStates = strings.Join(core.SplitList(ng.RollStates, true /* lower */), ",")
	ng.Ltmt = core.CleanString(ng.Ltmt)
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.clean()
	return validate.Struct(ng)
}

// UpdateGroup defines what information must be provided to modify an existing Group.
type UpdateGroup struct {
	ID int `json:"id" validate:"required,min=1"`
	NewGroup
}

func (ug *UpdateGroup) Validate(validate *validator.Validate) error {
	ug.clean()
	return validate.Struct(ug)
}

// orderingFields maps the fields groups can be ordered by to their columns.
var orderingFields = map[string]string{
	"id":              "id",
	"name":            "name",
	"number_of_weeks": "number_of_weeks",
	"incidents":       "incidents",
	"run_at":          "run_at",
	"student_count":   "student_count",
}

// CleanOrdering drops orderings on unknown fields.
func CleanOrdering(ordering []core.DBOrdering) []core.DBOrdering {
	cleaned := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := orderingFields[ord.Field]; ok {
			cleaned = append(cleaned, core.DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return cleaned
}
