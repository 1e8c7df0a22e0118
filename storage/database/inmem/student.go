package inmemdb

import (
	"context"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = repo.db.nextPK("student")
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, id := range sortedKeys(repo.db.students) {
		students = append(students, *repo.db.students[id])
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id int) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, core.ErrNotFound
}

func (repo *studentRepository) CountStudents(_ context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.students), nil
}

// DeleteStudent also removes the student's roll outcomes and group memberships.
func (repo *studentRepository) DeleteStudent(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.students, id)

	for oid, o := range repo.db.outcomes {
		if o.StudentID == id {
			delete(repo.db.outcomes, oid)
		}
	}
	kept := repo.db.memberships[:0]
	for _, m := range repo.db.memberships {
		if m.StudentID != id {
			kept = append(kept, m)
		}
	}
	repo.db.memberships = kept
	return nil
}
