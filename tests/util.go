package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/core/roll"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/storage/database"
)

// OpenDB opens and migrates the database at $TEST_DATABASE_URL, skipping the test when it is unset.
// All tables are emptied before returning.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.OpenURL(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if _, err = db.ExecContext(ctx, `TRUNCATE group_student, "group", student_roll_state, roll, student RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncating tables failed: %v", err)
	}
	return db
}

// Logger discards everything but fails the test on Fatal.
type Logger struct {
	T *testing.T
}

var _ core.Logger = Logger{}

func (l Logger) Debug(string, ...interface{}) {}
func (l Logger) Info(string, ...interface{})  {}
func (l Logger) Warn(string, ...interface{})  {}
func (l Logger) Error(string, ...interface{}) {}

func (l Logger) Fatal(msg string, args ...interface{}) {
	if l.T != nil {
		l.T.Fatalf("%s %v", msg, args)
	}
}

func CreateStudent(t *testing.T, repo student.Repository, firstName, lastName string) student.Student {
	t.Helper()
	s, err := repo.CreateStudent(context.Background(), student.Student{FirstName: firstName, LastName: lastName})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateRoll(t *testing.T, repo roll.Repository, name string, completedAt time.Time) roll.Roll {
	t.Helper()
	r, err := repo.CreateRoll(context.Background(), roll.Roll{Name: name, CompletedAt: completedAt.UTC()})
	if err != nil {
		t.Fatalf("CreateRoll() failed: %v", err)
	}
	return r
}

// RecordStates records `state` for each of `studentIDs` on roll `rollID`.
func RecordStates(t *testing.T, repo roll.Repository, rollID int, state roll.State, studentIDs ...int) {
	t.Helper()
	outcomes := make([]roll.Outcome, 0, len(studentIDs))
	for _, id := range studentIDs {
		outcomes = append(outcomes, roll.Outcome{RollID: rollID, StudentID: id, State: state})
	}
	if _, err := repo.SaveOutcomes(context.Background(), outcomes); err != nil {
		t.Fatalf("SaveOutcomes() failed: %v", err)
	}
}

func CreateGroup(
	t *testing.T,
	repo group.Repository,
	name string,
	weeks int,
	rollStates string,
	incidents int,
	ltmt group.Comparator,
) group.Group {
	t.Helper()
	g, err := repo.CreateGroup(context.Background(), group.Group{
		Name:          name,
		NumberOfWeeks: weeks,
		RollStates:    rollStates,
		Incidents:     incidents,
		Ltmt:          ltmt,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}
