package group

import (
	"context"
	"time"

	"github.com/trezcool/rollcall/core"
)

// MembershipWriter persists the result of a group evaluation.
type MembershipWriter interface {
	// CreateMemberships appends memberships; it never removes existing ones.
	CreateMemberships(ctx context.Context, members []Membership) error
	// UpdateGroupRun sets the run metadata of a group and returns the updated group.
	UpdateGroupRun(ctx context.Context, id int, runAt time.Time, studentCount int) (Group, error)
}

// Materializer turns evaluated incidents into a group's membership.
type Materializer struct {
	writer MembershipWriter
}

func NewMaterializer(writer MembershipWriter) *Materializer {
	return &Materializer{writer: writer}
}

// Materialize stores one membership per incident and then updates g's run metadata.
// Memberships are appended: the caller clears previous memberships beforehand.
// When the membership write fails g is left untouched.
func (m *Materializer) Materialize(ctx context.Context, g Group, incidents []Incident, now time.Time) (Group, error) {
	members := make([]Membership, 0, len(incidents))
	for _, inc := range incidents {
		members = append(members, Membership{
			GroupID:       g.ID,
			StudentID:     inc.StudentID,
			IncidentCount: inc.IncidentCount,
		})
	}

	if len(members) > 0 {
		if err := m.writer.CreateMemberships(ctx, members); err != nil {
			return g, core.NewPersistenceError("saving group memberships", err)
		}
	}

	updated, err := m.writer.UpdateGroupRun(ctx, g.ID, now.UTC(), len(members))
	if err != nil {
		return g, core.NewPersistenceError("updating group run", err)
	}
	return updated, nil
}
