package group

import (
	"context"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roll"
)

type (
	// IncidentQuery selects, per student, the outcomes in States on rolls completed at or after Since,
	// keeping the students whose count satisfies `count <Comparator> Threshold`.
	IncidentQuery struct {
		States     []roll.State
		Since      time.Time
		Comparator Comparator
		Threshold  int
	}

	// Incident is the number of matching outcomes of one student.
	Incident struct {
		StudentID     int `json:"student_id" db:"student_id"`
		IncidentCount int `json:"incident_count" db:"incident_count"`
	}

	// IncidentCounter runs the incident aggregation; results are ordered by student ID.
	IncidentCounter interface {
		CountIncidents(ctx context.Context, q IncidentQuery) ([]Incident, error)
	}
)

// HasState reports whether st is one of the queried states.
func (q IncidentQuery) HasState(st roll.State) bool {
	for _, s := range q.States {
		if s == st {
			return true
		}
	}
	return false
}

// Matches reports whether an incident count satisfies the query's threshold.
func (q IncidentQuery) Matches(count int) bool {
	return q.Comparator.Compare(count, q.Threshold)
}

// Evaluator computes which students currently match a group's rule.
type Evaluator struct {
	counter IncidentCounter
}

func NewEvaluator(counter IncidentCounter) *Evaluator {
	return &Evaluator{counter: counter}
}

// Evaluate returns the students matching g's rule at `now`, with their incident counts.
// It is read-only. The rule is validated before any query runs.
func (e *Evaluator) Evaluate(ctx context.Context, g Group, now time.Time) ([]Incident, error) {
	rule, err := g.Rule()
	if err != nil {
		return nil, err
	}

	incidents, err := e.counter.CountIncidents(ctx, IncidentQuery{
		States:     rule.States,
		Since:      rule.WindowStart(now),
		Comparator: rule.Comparator,
		Threshold:  rule.Threshold,
	})
	if err != nil {
		return nil, core.NewPersistenceError("counting incidents", err)
	}
	return incidents, nil
}
