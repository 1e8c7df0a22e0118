package group

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roll"
)

const week = 7 * 24 * time.Hour

var errNoRollStates = errors.New("at least one roll state is required")

// Rule is the validated form of a Group's filter definition.
type Rule struct {
	States     []roll.State
	Weeks      int
	Threshold  int
	Comparator Comparator
}

// ParseRollStates splits a comma-separated list of roll states.
// Items are trimmed and lowered, empty items and duplicates are dropped.
func ParseRollStates(s string) ([]roll.State, error) {
	labels := core.SplitList(s, true /* lower */)
	states := make([]roll.State, 0, len(labels))
	seen := make(map[roll.State]bool, len(labels))
	for _, label := range labels {
		st, err := roll.ParseState(label)
		if err != nil {
			return nil, err
		}
		if !seen[st] {
			seen[st] = true
			states = append(states, st)
		}
	}
	if len(states) == 0 {
		return nil, errNoRollStates
	}
	return states, nil
}

// Rule validates g's filter definition.
// Any problem is reported as a *core.InvalidRuleError.
func (g Group) Rule() (Rule, error) {
	states, err := ParseRollStates(g.RollStates)
	if err != nil {
		return Rule{}, core.NewInvalidRuleError(g.ID, "roll_states", err.Error())
	}
	if !g.Ltmt.IsValid() {
		return Rule{}, core.NewInvalidRuleError(g.ID, "ltmt", errUnknownComparator.Error())
	}
	if g.NumberOfWeeks < 1 {
		return Rule{}, core.NewInvalidRuleError(g.ID, "number_of_weeks", "must be a positive integer")
	}
	if g.Incidents < 0 {
		return Rule{}, core.NewInvalidRuleError(g.ID, "incidents", "must not be negative")
	}
	return Rule{
		States:     states,
		Weeks:      g.NumberOfWeeks,
		Threshold:  g.Incidents,
		Comparator: g.Ltmt,
	}, nil
}

// WindowStart is the earliest roll completion time counted by the rule at `now`.
func (r Rule) WindowStart(now time.Time) time.Time {
	return now.UTC().Add(-time.Duration(r.Weeks) * week)
}
