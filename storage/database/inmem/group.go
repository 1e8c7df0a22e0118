package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/group"
)

type groupRepository struct {
	db *DB
}

var (
	_ group.Repository      = (*groupRepository)(nil) // interface compliance check
	_ group.IncidentCounter = (*groupRepository)(nil)
)

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	g.ID = repo.db.nextPK("group")
	g.RunAt = null.Time{}
	g.StudentCount = null.Int{}
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) QueryAllGroups(_ context.Context, ordering []core.DBOrdering) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.groups))
	for _, id := range sortedKeys(repo.db.groups) {
		groups = append(groups, *repo.db.groups[id])
	}
	if len(ordering) > 0 {
		sort.SliceStable(groups, func(i, j int) bool {
			for _, ord := range ordering {
				c := compareGroups(groups[i], groups[j], ord.Field)
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	return groups, nil
}

// compareGroups returns -1, 0 or 1. Null run metadata sorts last in ascending order, like PostgreSQL does.
func compareGroups(a, b group.Group, field string) int {
	switch field {
	case "id":
		return compareInts(a.ID, b.ID)
	case "name":
		return compareStrings(a.Name, b.Name)
	case "number_of_weeks":
		return compareInts(a.NumberOfWeeks, b.NumberOfWeeks)
	case "incidents":
		return compareInts(a.Incidents, b.Incidents)
	case "run_at":
		if a.RunAt.Valid != b.RunAt.Valid {
			return compareNullity(a.RunAt.Valid)
		}
		switch {
		case a.RunAt.Time.Before(b.RunAt.Time):
			return -1
		case a.RunAt.Time.After(b.RunAt.Time):
			return 1
		}
		return 0
	case "student_count":
		if a.StudentCount.Valid != b.StudentCount.Valid {
			return compareNullity(a.StudentCount.Valid)
		}
		return compareInts(a.StudentCount.Int, b.StudentCount.Int)
	}
	return 0
}

func compareNullity(aValid bool) int {
	if aValid {
		return -1
	}
	return 1
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id int) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return *g, nil
	}
	return group.Group{}, core.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.groups[g.ID]
	if !ok {
		return group.Group{}, core.ErrNotFound
	}
	existing.Name = g.Name
	existing.NumberOfWeeks = g.NumberOfWeeks
	existing.RollStates = g.RollStates
	existing.Incidents = g.Incidents
	existing.Ltmt = g.Ltmt
	return *existing, nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.groups[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.groups, id)

	kept := repo.db.memberships[:0]
	for _, m := range repo.db.memberships {
		if m.GroupID != id {
			kept = append(kept, m)
		}
	}
	repo.db.memberships = kept
	return nil
}

func (repo *groupRepository) QueryGroupStudents(_ context.Context, groupID int) ([]group.GroupStudent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]group.GroupStudent, 0)
	for _, m := range repo.db.memberships {
		if m.GroupID != groupID {
			continue
		}
		s, ok := repo.db.students[m.StudentID]
		if !ok {
			continue
		}
		students = append(students, group.GroupStudent{
			ID:            s.ID,
			FirstName:     s.FirstName,
			LastName:      s.LastName,
			FullName:      s.FullName(),
			IncidentCount: m.IncidentCount,
		})
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *groupRepository) DeleteAllMemberships(_ context.Context) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.memberships = nil
	return nil
}

func (repo *groupRepository) CreateMemberships(_ context.Context, members []group.Membership) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, m := range members {
		if _, ok := repo.db.groups[m.GroupID]; !ok {
			return core.ErrNotFound
		}
		if _, ok := repo.db.students[m.StudentID]; !ok {
			return core.ErrNotFound
		}
	}
	repo.db.memberships = append(repo.db.memberships, members...)
	return nil
}

func (repo *groupRepository) UpdateGroupRun(_ context.Context, id int, runAt time.Time, studentCount int) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	g, ok := repo.db.groups[id]
	if !ok {
		return group.Group{}, core.ErrNotFound
	}
	g.RunAt = null.TimeFrom(runAt.UTC())
	g.StudentCount = null.IntFrom(studentCount)
	return *g, nil
}

// CountIncidents joins outcomes to their rolls and aggregates them per student, like the SQL implementation.
func (repo *groupRepository) CountIncidents(_ context.Context, q group.IncidentQuery) ([]group.Incident, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	since := q.Since.UTC()
	counts := make(map[int]int)
	for _, o := range repo.db.outcomes {
		r, ok := repo.db.rolls[o.RollID]
		if !ok || !q.HasState(o.State) || r.CompletedAt.Before(since) {
			continue
		}
		counts[o.StudentID]++
	}

	incidents := make([]group.Incident, 0, len(counts))
	for _, studentID := range sortedKeys(counts) {
		if cnt := counts[studentID]; q.Matches(cnt) {
			incidents = append(incidents, group.Incident{StudentID: studentID, IncidentCount: cnt})
		}
	}
	return incidents, nil
}
