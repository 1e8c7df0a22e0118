package student

import (
	"context"
)

// defaultStudents are inserted by SeedDefaults into an empty database.
var defaultStudents = [][2]string{
	{"David", "Bowie"},
	{"Robert", "Plant"},
	{"James", "Bond"},
	{"Bob", "Marley"},
	{"Paul", "McCartney"},
	{"George", "Harrison"},
	{"Elton", "John"},
	{"Simon", "Joyner"},
	{"John", "Denver"},
	{"Neil", "Diamond"},
	{"Donna", "Summer"},
	{"Aretha", "Franklin"},
	{"Diana", "Ross"},
	{"Kate", "Bush"},
	{"Boz", "Scaggs"},
}

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		CountStudents(ctx context.Context) (int, error)
		DeleteStudent(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	return svc.repo.CreateStudent(ctx, Student{
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		PhotoURL:  ns.PhotoURL,
	})
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// Delete removes a student, returning the removed record.
func (svc *Service) Delete(ctx context.Context, id int) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = svc.repo.DeleteStudent(ctx, id); err != nil {
		return Student{}, err
	}
	return s, nil
}

// SeedDefaults inserts the default students when there are none yet.
// It returns the number of students created.
func (svc *Service) SeedDefaults(ctx context.Context) (int, error) {
	cnt, err := svc.repo.CountStudents(ctx)
	if err != nil {
		return 0, err
	}
	if cnt > 0 {
		return 0, nil
	}
	for _, name := range defaultStudents {
		if _, err = svc.repo.CreateStudent(ctx, Student{FirstName: name[0], LastName: name[1]}); err != nil {
			return 0, err
		}
	}
	return len(defaultStudents), nil
}
