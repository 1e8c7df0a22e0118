package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roll"
)

const (
	rollColumns    = `id, name, completed_at`
	outcomeColumns = `id, roll_id, student_id, state`
)

type rollRepository struct {
	db core.DB
}

var _ roll.Repository = (*rollRepository)(nil)

func NewRollRepository(db core.DB) *rollRepository {
	return &rollRepository{db: db}
}

func (repo *rollRepository) CreateRoll(ctx context.Context, r roll.Roll) (roll.Roll, error) {
	var created roll.Roll
	err := repo.db.GetContext(ctx, &created, `
INSERT INTO roll (name, completed_at)
VALUES ($1, $2)
RETURNING `+rollColumns,
		r.Name, r.CompletedAt.UTC())
	return created, dbError("creating roll", err)
}

func (repo *rollRepository) QueryAllRolls(ctx context.Context) ([]roll.Roll, error) {
	rolls := make([]roll.Roll, 0)
	if err := repo.db.SelectContext(ctx, &rolls, `SELECT `+rollColumns+` FROM roll ORDER BY id`); err != nil {
		return nil, dbError("querying rolls", err)
	}
	return rolls, nil
}

func (repo *rollRepository) GetRollByID(ctx context.Context, id int) (roll.Roll, error) {
	var r roll.Roll
	err := repo.db.GetContext(ctx, &r, `SELECT `+rollColumns+` FROM roll WHERE id = $1`, id)
	return r, dbError("getting roll", err)
}

func (repo *rollRepository) SaveOutcomes(ctx context.Context, outcomes []roll.Outcome) ([]roll.Outcome, error) {
	saved := make([]roll.Outcome, 0, len(outcomes))
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, o := range outcomes {
			var out roll.Outcome
			err := tx.GetContext(ctx, &out, `
INSERT INTO student_roll_state (roll_id, student_id, state)
VALUES ($1, $2, $3)
ON CONFLICT (student_id, roll_id) DO UPDATE SET state = EXCLUDED.state
RETURNING `+outcomeColumns,
				o.RollID, o.StudentID, o.State)
			if err != nil {
				return dbError("saving roll outcome", err)
			}
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (repo *rollRepository) QueryRollOutcomes(ctx context.Context, rollID int) ([]roll.Outcome, error) {
	outcomes := make([]roll.Outcome, 0)
	err := repo.db.SelectContext(ctx, &outcomes,
		`SELECT `+outcomeColumns+` FROM student_roll_state WHERE roll_id = $1 ORDER BY student_id`, rollID)
	if err != nil {
		return nil, dbError("querying roll outcomes", err)
	}
	return outcomes, nil
}
