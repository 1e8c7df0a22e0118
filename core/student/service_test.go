package student_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/storage/database/inmem"
)

func TestService_SeedDefaults(t *testing.T) {
	svc := student.NewService(inmemdb.NewStudentRepository(inmemdb.Open()))
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	// seeding is a no-op once students exist
	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	students, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, students, 15)
	assert.Equal(t, "David Bowie", students[0].FullName())
}

func TestService_CreateDelete(t *testing.T) {
	svc := student.NewService(inmemdb.NewStudentRepository(inmemdb.Open()))
	ctx := context.Background()

	s, err := svc.Create(ctx, student.NewStudent{FirstName: "Kate", LastName: "Bush"})
	require.NoError(t, err)
	assert.NotZero(t, s.ID)

	got, err := svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	removed, err := svc.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, removed)

	_, err = svc.Delete(ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
