package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roll"
)

type rollRepository struct {
	db *DB
}

var _ roll.Repository = (*rollRepository)(nil) // interface compliance check

func NewRollRepository(db *DB) *rollRepository {
	return &rollRepository{db: db}
}

func (repo *rollRepository) CreateRoll(_ context.Context, r roll.Roll) (roll.Roll, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = repo.db.nextPK("roll")
	r.CompletedAt = r.CompletedAt.UTC()
	repo.db.rolls[r.ID] = &r
	return r, nil
}

func (repo *rollRepository) QueryAllRolls(_ context.Context) ([]roll.Roll, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rolls := make([]roll.Roll, 0, len(repo.db.rolls))
	for _, id := range sortedKeys(repo.db.rolls) {
		rolls = append(rolls, *repo.db.rolls[id])
	}
	return rolls, nil
}

func (repo *rollRepository) GetRollByID(_ context.Context, id int) (roll.Roll, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.rolls[id]; ok {
		return *r, nil
	}
	return roll.Roll{}, core.ErrNotFound
}

// SaveOutcomes is all-or-nothing: nothing is saved if a roll or student is missing.
func (repo *rollRepository) SaveOutcomes(_ context.Context, outcomes []roll.Outcome) ([]roll.Outcome, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, o := range outcomes {
		if _, ok := repo.db.rolls[o.RollID]; !ok {
			return nil, core.ErrNotFound
		}
		if _, ok := repo.db.students[o.StudentID]; !ok {
			return nil, core.ErrNotFound
		}
	}

	saved := make([]roll.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if existing := repo.findOutcome(o.RollID, o.StudentID); existing != nil {
			existing.State = o.State
			saved = append(saved, *existing)
			continue
		}
		o.ID = repo.db.nextPK("student_roll_state")
		repo.db.outcomes[o.ID] = &o
		saved = append(saved, o)
	}
	return saved, nil
}

func (repo *rollRepository) findOutcome(rollID, studentID int) *roll.Outcome {
	for _, o := range repo.db.outcomes {
		if o.RollID == rollID && o.StudentID == studentID {
			return o
		}
	}
	return nil
}

func (repo *rollRepository) QueryRollOutcomes(_ context.Context, rollID int) ([]roll.Outcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	outcomes := make([]roll.Outcome, 0)
	for _, o := range repo.db.outcomes {
		if o.RollID == rollID {
			outcomes = append(outcomes, *o)
		}
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].StudentID < outcomes[j].StudentID })
	return outcomes, nil
}
