package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/core/roll"
)

const (
	groupColumns = `id, name, number_of_weeks, roll_states, incidents, ltmt, run_at, student_count`

	// the comparison operator is appended by CountIncidents
	countIncidentsQuery = `
SELECT srs.student_id, COUNT(*) AS incident_count
FROM student_roll_state srs
INNER JOIN roll r ON r.id = srs.roll_id
WHERE srs.state IN (?) AND r.completed_at >= ?
GROUP BY srs.student_id
HAVING COUNT(*) `
)

type groupRepository struct {
	db core.DB
}

var (
	_ group.Repository      = (*groupRepository)(nil)
	_ group.IncidentCounter = (*groupRepository)(nil)
)

func NewGroupRepository(db core.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	var created group.Group
	err := repo.db.GetContext(ctx, &created, `
INSERT INTO "group" (name, number_of_weeks, roll_states, incidents, ltmt)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+groupColumns,
		g.Name, g.NumberOfWeeks, g.RollStates, g.Incidents, g.Ltmt)
	return created, dbError("creating group", err)
}

func (repo *groupRepository) QueryAllGroups(ctx context.Context, ordering []core.DBOrdering) ([]group.Group, error) {
	groups := make([]group.Group, 0)
	q := `SELECT ` + groupColumns + ` FROM "group"` + orderBy(ordering, "id ASC")
	if err := repo.db.SelectContext(ctx, &groups, q); err != nil {
		return nil, dbError("querying groups", err)
	}
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id int) (group.Group, error) {
	var g group.Group
	err := repo.db.GetContext(ctx, &g, `SELECT `+groupColumns+` FROM "group" WHERE id = $1`, id)
	return g, dbError("getting group", err)
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	var updated group.Group
	err := repo.db.GetContext(ctx, &updated, `
UPDATE "group"
SET name = $2, number_of_weeks = $3, roll_states = $4, incidents = $5, ltmt = $6
WHERE id = $1
RETURNING `+groupColumns,
		g.ID, g.Name, g.NumberOfWeeks, g.RollStates, g.Incidents, g.Ltmt)
	return updated, dbError("updating group", err)
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "group" WHERE id = $1`, id)
	if err != nil {
		return dbError("deleting group", err)
	}
	return mustAffect("deleting group", res)
}

func (repo *groupRepository) QueryGroupStudents(ctx context.Context, groupID int) ([]group.GroupStudent, error) {
	students := make([]group.GroupStudent, 0)
	err := repo.db.SelectContext(ctx, &students, `
SELECT s.id, s.first_name, s.last_name, s.first_name || ' ' || s.last_name AS full_name, gs.incident_count
FROM group_student gs
INNER JOIN student s ON s.id = gs.student_id
WHERE gs.group_id = $1
ORDER BY s.id`, groupID)
	if err != nil {
		return nil, dbError("querying group students", err)
	}
	return students, nil
}

func (repo *groupRepository) DeleteAllMemberships(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM group_student`)
	return dbError("deleting group memberships", err)
}

func (repo *groupRepository) CreateMemberships(ctx context.Context, members []group.Membership) error {
	if len(members) == 0 {
		return nil
	}
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
INSERT INTO group_student (group_id, student_id, incident_count)
VALUES (:group_id, :student_id, :incident_count)`, members)
		return dbError("creating group memberships", err)
	})
}

func (repo *groupRepository) UpdateGroupRun(ctx context.Context, id int, runAt time.Time, studentCount int) (group.Group, error) {
	var updated group.Group
	err := repo.db.GetContext(ctx, &updated, `
UPDATE "group" SET run_at = $2, student_count = $3
WHERE id = $1
RETURNING `+groupColumns,
		id, runAt.UTC(), studentCount)
	return updated, dbError("updating group run", err)
}

// CountIncidents aggregates the outcomes matching q in a single query.
// The comparison operator comes from group.Comparator.SQL, never from user input.
func (repo *groupRepository) CountIncidents(ctx context.Context, q group.IncidentQuery) ([]group.Incident, error) {
	query, args, err := sqlx.In(
		countIncidentsQuery+q.Comparator.SQL()+` ?
ORDER BY srs.student_id`,
		roll.StateStrings(q.States), q.Since.UTC(), q.Threshold,
	)
	if err != nil {
		return nil, dbError("building incident query", err)
	}

	incidents := make([]group.Incident, 0)
	if err = repo.db.SelectContext(ctx, &incidents, repo.db.Rebind(query), args...); err != nil {
		return nil, dbError("counting incidents", err)
	}
	return incidents, nil
}
