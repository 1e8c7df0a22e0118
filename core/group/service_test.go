package group_test

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/core/roll"
	"github.com/trezcool/rollcall/services/email"
	"github.com/trezcool/rollcall/services/lock"
	"github.com/trezcool/rollcall/storage/database/inmem"
	"github.com/trezcool/rollcall/tests"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts group.Options) (*group.Service, *inmemdb.DB, *lock.Local) {
	db := inmemdb.Open()
	groupRepo := inmemdb.NewGroupRepository(db)
	locker := lock.NewLocal()
	svc := group.NewService(groupRepo, groupRepo, locker, nil, testutil.Logger{T: t}, opts)
	svc.SetNowFunc(func() time.Time { return now })
	return svc, db, locker
}

// outcomes creates a student with one `state` outcome on each roll completed at `at`.
func outcomes(t *testing.T, db *inmemdb.DB, name string, state roll.State, at ...time.Time) int {
	studentRepo := inmemdb.NewStudentRepository(db)
	rollRepo := inmemdb.NewRollRepository(db)

	s := testutil.CreateStudent(t, studentRepo, name, "Test")
	for i, ts := range at {
		r := testutil.CreateRoll(t, rollRepo, name+" roll "+string(rune('A'+i)), ts)
		testutil.RecordStates(t, rollRepo, r.ID, state, s.ID)
	}
	return s.ID
}

func daysAgo(days ...int) []time.Time {
	times := make([]time.Time, 0, len(days))
	for _, d := range days {
		times = append(times, now.AddDate(0, 0, -d))
	}
	return times
}

func TestService_RunFilters_ChronicAbsentees(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()

	a := outcomes(t, db, "A", roll.StateAbsent, daysAgo(1, 3, 8, 20)...)
	outcomes(t, db, "B", roll.StateAbsent, daysAgo(2, 9)...)

	g, err := svc.Create(ctx, group.NewGroup{
		Name:          "Chronic absentees",
		NumberOfWeeks: 4,
		RollStates:    "absent",
		Incidents:     3,
		Ltmt:          ">=",
	})
	require.NoError(t, err)
	assert.False(t, g.RunAt.Valid)
	assert.False(t, g.StudentCount.Valid)

	summary, err := svc.RunFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Filters run successfully.", summary.Message)
	assert.Equal(t, 1, summary.Groups)
	assert.Empty(t, summary.Failed)

	members, err := svc.QueryStudents(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, a, members[0].ID)
	assert.Equal(t, 4, members[0].IncidentCount)
	assert.Equal(t, "A Test", members[0].FullName)

	g, err = svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, g.StudentCount.Int)
	assert.True(t, g.RunAt.Time.Equal(now))
}

func TestService_RunFilters_Thresholds(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()
	repo := inmemdb.NewGroupRepository(db)

	three := outcomes(t, db, "Three", roll.StateAbsent, daysAgo(1, 2, 3)...)
	one := outcomes(t, db, "One", roll.StateAbsent, daysAgo(1)...)
	late := outcomes(t, db, "Late", roll.StateLate, daysAgo(1, 2, 3, 4)...)

	atLeastTwo := testutil.CreateGroup(t, repo, "at least 2", 2, "absent", 2, group.GreaterOrEqual)
	moreThanThree := testutil.CreateGroup(t, repo, "more than 3", 2, "absent", 3, group.GreaterThan)
	exactlyThree := testutil.CreateGroup(t, repo, "exactly 3", 2, "absent", 3, group.Equal)
	lessThanTwo := testutil.CreateGroup(t, repo, "fewer than 2", 2, "absent,late", 2, group.LessThan)
	absentOrLate := testutil.CreateGroup(t, repo, "absent or late", 2, "absent,late", 4, group.GreaterOrEqual)

	_, err := svc.RunFilters(ctx)
	require.NoError(t, err)

	tests := []struct {
		g    group.Group
		want map[int]int
	}{
		{g: atLeastTwo, want: map[int]int{three: 3}},
		{g: moreThanThree, want: map[int]int{}},
		{g: exactlyThree, want: map[int]int{three: 3}},
		{g: lessThanTwo, want: map[int]int{one: 1}},
		{g: absentOrLate, want: map[int]int{late: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.g.Name, func(t *testing.T) {
			members, err := svc.QueryStudents(ctx, tt.g.ID)
			require.NoError(t, err)
			got := make(map[int]int, len(members))
			for _, m := range members {
				got[m.ID] = m.IncidentCount
			}
			assert.Equal(t, tt.want, got)

			g, err := svc.GetByID(ctx, tt.g.ID)
			require.NoError(t, err)
			assert.Equal(t, len(members), g.StudentCount.Int)
		})
	}
}

func TestService_RunFilters_WindowBoundary(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()
	repo := inmemdb.NewGroupRepository(db)

	windowStart := now.Add(-2 * 7 * 24 * time.Hour)
	onBoundary := outcomes(t, db, "OnBoundary", roll.StateAbsent, windowStart)
	outcomes(t, db, "JustBefore", roll.StateAbsent, windowStart.Add(-time.Second))

	g := testutil.CreateGroup(t, repo, "any absence", 2, "absent", 1, group.GreaterOrEqual)

	_, err := svc.RunFilters(ctx)
	require.NoError(t, err)

	members, err := svc.QueryStudents(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, onBoundary, members[0].ID)
}

func TestService_RunFilters_Idempotent(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()
	repo := inmemdb.NewGroupRepository(db)

	outcomes(t, db, "A", roll.StateAbsent, daysAgo(1, 2)...)
	outcomes(t, db, "B", roll.StateAbsent, daysAgo(1, 2, 3)...)
	g := testutil.CreateGroup(t, repo, "absentees", 1, "absent", 2, group.GreaterOrEqual)

	_, err := svc.RunFilters(ctx)
	require.NoError(t, err)
	first, err := svc.QueryStudents(ctx, g.ID)
	require.NoError(t, err)
	firstGroup, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)

	later := now.Add(time.Minute)
	svc.SetNowFunc(func() time.Time { return later })

	_, err = svc.RunFilters(ctx)
	require.NoError(t, err)
	second, err := svc.QueryStudents(ctx, g.ID)
	require.NoError(t, err)
	secondGroup, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
	assert.Equal(t, firstGroup.StudentCount, secondGroup.StudentCount)
	assert.True(t, secondGroup.RunAt.Time.After(firstGroup.RunAt.Time))
}

func TestService_RunFilters_SkipsInvalidGroups(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()
	repo := inmemdb.NewGroupRepository(db)

	a := outcomes(t, db, "A", roll.StateAbsent, daysAgo(1)...)
	broken := testutil.CreateGroup(t, repo, "broken", 1, "absent,asleep", 1, group.GreaterOrEqual)
	ok := testutil.CreateGroup(t, repo, "ok", 1, "absent", 1, group.GreaterOrEqual)

	summary, err := svc.RunFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Groups)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, broken.ID, summary.Failed[0].GroupID)
	assert.Contains(t, summary.Failed[0].Error, "roll_states")

	members, err := svc.QueryStudents(ctx, ok.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, a, members[0].ID)

	broken, err = svc.GetByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.False(t, broken.RunAt.Valid)
}

func TestService_RunFilters_FailFast(t *testing.T) {
	svc, db, _ := setup(t, group.Options{FailFast: true})
	ctx := context.Background()
	repo := inmemdb.NewGroupRepository(db)

	outcomes(t, db, "A", roll.StateAbsent, daysAgo(1)...)
	testutil.CreateGroup(t, repo, "broken", 1, "", 1, group.GreaterOrEqual)
	after := testutil.CreateGroup(t, repo, "after", 1, "absent", 1, group.GreaterOrEqual)

	_, err := svc.RunFilters(ctx)
	var ruleErr *core.InvalidRuleError
	require.ErrorAs(t, err, &ruleErr)

	after, err = svc.GetByID(ctx, after.ID)
	require.NoError(t, err)
	assert.False(t, after.RunAt.Valid)
}

func TestService_RunFilters_RunInProgress(t *testing.T) {
	svc, _, locker := setup(t, group.Options{})
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, group.RunLockName)
	require.NoError(t, err)

	_, err = svc.RunFilters(ctx)
	assert.ErrorIs(t, err, core.ErrRunInProgress)

	unlock()
	_, err = svc.RunFilters(ctx)
	assert.NoError(t, err)
}

func TestService_RunFilters_ClearsStaleMemberships(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()
	repo := inmemdb.NewGroupRepository(db)

	outcomes(t, db, "A", roll.StateAbsent, daysAgo(1)...)
	g := testutil.CreateGroup(t, repo, "absentees", 1, "absent", 1, group.GreaterOrEqual)

	_, err := svc.RunFilters(ctx)
	require.NoError(t, err)

	_, err = svc.Update(ctx, group.UpdateGroup{ID: g.ID, NewGroup: group.NewGroup{
		Name: "latecomers", NumberOfWeeks: 1, RollStates: "late", Incidents: 1, Ltmt: ">=",
	}})
	require.NoError(t, err)

	_, err = svc.RunFilters(ctx)
	require.NoError(t, err)
	members, err := svc.QueryStudents(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	g, err = svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, g.StudentCount.Valid)
	assert.Equal(t, 0, g.StudentCount.Int)
}

func TestService_RunFilters_SendsReport(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewGroupRepository(db)
	conf := &core.Config{AppName: "Rollcall", Email: core.EmailConfig{DefaultFrom: "noreply@test.cd"}}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := group.NewService(repo, repo, lock.NewLocal(), mailSvc, testutil.Logger{T: t}, group.Options{
		ReportRecipients: []mail.Address{{Address: "principal@test.cd"}},
	})

	testutil.CreateGroup(t, repo, "broken", 1, "nope", 1, group.GreaterOrEqual)
	testutil.CreateGroup(t, repo, "fine", 1, "absent", 1, group.GreaterOrEqual)

	_, err := svc.RunFilters(context.Background())
	require.NoError(t, err)

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Filter run report (1 failed)", sent[0].Subject)
	assert.True(t, strings.Contains(sent[0].TextContent, "Groups updated: 1"), sent[0].TextContent)
	assert.Contains(t, sent[0].TextContent, "broken")
}

func TestService_CRUD(t *testing.T) {
	svc, db, _ := setup(t, group.Options{})
	ctx := context.Background()

	outcomes(t, db, "A", roll.StateLate, daysAgo(1)...)

	g, err := svc.Create(ctx, group.NewGroup{Name: "late", NumberOfWeeks: 1, RollStates: "late", Incidents: 0, Ltmt: ">"})
	require.NoError(t, err)
	assert.Equal(t, group.GreaterThan, g.Ltmt)

	_, err = svc.RunFilters(ctx)
	require.NoError(t, err)

	t.Run("update keeps run metadata", func(t *testing.T) {
		updated, err := svc.Update(ctx, group.UpdateGroup{ID: g.ID, NewGroup: group.NewGroup{
			Name: "very late", NumberOfWeeks: 3, RollStates: "late,absent", Incidents: 2, Ltmt: "<=",
		}})
		require.NoError(t, err)
		assert.Equal(t, "very late", updated.Name)
		assert.Equal(t, group.LessOrEqual, updated.Ltmt)
		assert.True(t, updated.RunAt.Valid)
		assert.Equal(t, 1, updated.StudentCount.Int)
	})

	t.Run("update missing group", func(t *testing.T) {
		_, err := svc.Update(ctx, group.UpdateGroup{ID: 999, NewGroup: group.NewGroup{
			Name: "x", NumberOfWeeks: 1, RollStates: "late", Ltmt: "=",
		}})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("query all ordered", func(t *testing.T) {
		_, err := svc.Create(ctx, group.NewGroup{Name: "absent", NumberOfWeeks: 1, RollStates: "absent", Ltmt: ">"})
		require.NoError(t, err)

		groups, err := svc.QueryAll(ctx, []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "unknown"}})
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "absent", groups[0].Name)
		assert.Equal(t, "very late", groups[1].Name)
	})

	t.Run("delete removes memberships", func(t *testing.T) {
		removed, err := svc.Delete(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, g.ID, removed.ID)

		_, err = svc.GetByID(ctx, g.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = svc.QueryStudents(ctx, g.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("delete missing group", func(t *testing.T) {
		_, err := svc.Delete(ctx, g.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
