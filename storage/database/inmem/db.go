// Package inmemdb is an in-memory implementation of the repositories, used in tests and by the `memory` database engine.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/core/roll"
	"github.com/trezcool/rollcall/core/student"
)

type (
	// DB holds every table behind a single lock, so that cascades and joins see a consistent state.
	DB struct {
		sync.RWMutex

		students    map[int]*student.Student
		rolls       map[int]*roll.Roll
		outcomes    map[int]*roll.Outcome
		groups      map[int]*group.Group
		memberships []group.Membership

		pks map[string]int
	}
)

func Open() *DB {
	return &DB{
		students: make(map[int]*student.Student),
		rolls:    make(map[int]*roll.Roll),
		outcomes: make(map[int]*roll.Outcome),
		groups:   make(map[int]*group.Group),
		pks:      make(map[string]int),
	}
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK(table string) int {
	db.pks[table]++
	return db.pks[table]
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
