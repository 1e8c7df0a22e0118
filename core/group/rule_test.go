package group

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roll"
)

func TestParseRollStates(t *testing.T) {
	states, err := ParseRollStates(" Absent, late,absent,, ")
	require.NoError(t, err)
	assert.Equal(t, []roll.State{roll.StateAbsent, roll.StateLate}, states)

	_, err = ParseRollStates(" , ")
	assert.ErrorIs(t, err, errNoRollStates)

	_, err = ParseRollStates("absent,sick")
	assert.Error(t, err)
}

func TestGroup_Rule(t *testing.T) {
	valid := Group{ID: 7, NumberOfWeeks: 2, RollStates: "absent,late", Incidents: 3, Ltmt: GreaterOrEqual}

	rule, err := valid.Rule()
	require.NoError(t, err)
	assert.Equal(t, Rule{
		States:     []roll.State{roll.StateAbsent, roll.StateLate},
		Weeks:      2,
		Threshold:  3,
		Comparator: GreaterOrEqual,
	}, rule)

	tests := []struct {
		name      string
		mutate    func(g *Group)
		wantField string
	}{
		{name: "no roll states", mutate: func(g *Group) { g.RollStates = "" }, wantField: "roll_states"},
		{name: "unknown roll state", mutate: func(g *Group) { g.RollStates = "absent,asleep" }, wantField: "roll_states"},
		{name: "unknown comparator", mutate: func(g *Group) { g.Ltmt = 0 }, wantField: "ltmt"},
		{name: "zero weeks", mutate: func(g *Group) { g.NumberOfWeeks = 0 }, wantField: "number_of_weeks"},
		{name: "negative incidents", mutate: func(g *Group) { g.Incidents = -1 }, wantField: "incidents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)

			_, err := g.Rule()
			var ruleErr *core.InvalidRuleError
			require.True(t, errors.As(err, &ruleErr), "got %v", err)
			assert.Equal(t, 7, ruleErr.GroupID)
			assert.Equal(t, tt.wantField, ruleErr.Field)
		})
	}
}

func TestRule_WindowStart(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, loc)

	start := Rule{Weeks: 2}.WindowStart(now)
	assert.Equal(t, time.UTC, start.Location())
	assert.True(t, start.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}
