package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/services/lock"
	"github.com/trezcool/rollcall/storage/database/inmem"
	"github.com/trezcool/rollcall/tests"
)

func Test_scheduleFilterRuns(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewGroupRepository(db)
	svc := group.NewService(repo, repo, lock.NewLocal(), nil, testutil.Logger{T: t}, group.Options{})

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: "@hourly"},
		{spec: "0 6 * * 1-5"},
		{spec: "*/15 * * * *"},
		{spec: "every day", wantErr: true},
		{spec: "0 6 * *", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			scheduler, err := scheduleFilterRuns(tt.spec, svc, testutil.Logger{T: t})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Len(t, scheduler.Entries(), 1)
			}
		})
	}
}
