package sqlxrepos

import (
	"context"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

const studentColumns = `id, first_name, last_name, photo_url`

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	var created student.Student
	err := repo.db.GetContext(ctx, &created, `
INSERT INTO student (first_name, last_name, photo_url)
VALUES ($1, $2, $3)
RETURNING `+studentColumns,
		s.FirstName, s.LastName, s.PhotoURL)
	return created, dbError("creating student", err)
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM student ORDER BY id`); err != nil {
		return nil, dbError("querying students", err)
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var s student.Student
	err := repo.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM student WHERE id = $1`, id)
	return s, dbError("getting student", err)
}

func (repo *studentRepository) CountStudents(ctx context.Context) (int, error) {
	var cnt int
	err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM student`)
	return cnt, dbError("counting students", err)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return dbError("deleting student", err)
	}
	return mustAffect("deleting student", res)
}
