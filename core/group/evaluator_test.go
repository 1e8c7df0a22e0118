package group

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roll"
)

type counterFunc func(ctx context.Context, q IncidentQuery) ([]Incident, error)

func (f counterFunc) CountIncidents(ctx context.Context, q IncidentQuery) ([]Incident, error) {
	return f(ctx, q)
}

func TestEvaluator_Evaluate(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	g := Group{ID: 1, NumberOfWeeks: 4, RollStates: "absent", Incidents: 3, Ltmt: GreaterOrEqual}

	var got IncidentQuery
	want := []Incident{{StudentID: 1, IncidentCount: 4}}
	ev := NewEvaluator(counterFunc(func(_ context.Context, q IncidentQuery) ([]Incident, error) {
		got = q
		return want, nil
	}))

	incidents, err := ev.Evaluate(context.Background(), g, now)
	require.NoError(t, err)
	assert.Equal(t, want, incidents)
	assert.Equal(t, IncidentQuery{
		States:     []roll.State{roll.StateAbsent},
		Since:      now.Add(-4 * week),
		Comparator: GreaterOrEqual,
		Threshold:  3,
	}, got)
}

func TestEvaluator_InvalidRuleRunsNoQuery(t *testing.T) {
	called := false
	ev := NewEvaluator(counterFunc(func(context.Context, IncidentQuery) ([]Incident, error) {
		called = true
		return nil, nil
	}))

	_, err := ev.Evaluate(context.Background(), Group{ID: 2, NumberOfWeeks: 1, RollStates: "absent", Ltmt: 0}, time.Now())
	var ruleErr *core.InvalidRuleError
	assert.True(t, errors.As(err, &ruleErr))
	assert.False(t, called)
}

func TestEvaluator_PersistenceError(t *testing.T) {
	boom := errors.New("connection reset")
	ev := NewEvaluator(counterFunc(func(context.Context, IncidentQuery) ([]Incident, error) {
		return nil, boom
	}))

	_, err := ev.Evaluate(context.Background(), Group{ID: 3, NumberOfWeeks: 1, RollStates: "late", Ltmt: Equal}, time.Now())
	var persistErr *core.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.ErrorIs(t, err, boom)
}

func TestIncidentQuery(t *testing.T) {
	q := IncidentQuery{States: []roll.State{roll.StateAbsent, roll.StateLate}, Comparator: LessThan, Threshold: 2}
	assert.True(t, q.HasState(roll.StateLate))
	assert.False(t, q.HasState(roll.StatePresent))
	assert.True(t, q.Matches(1))
	assert.False(t, q.Matches(2))
}
