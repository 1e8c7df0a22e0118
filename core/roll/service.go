package roll

import (
	"context"
	"time"

	"github.com/trezcool/rollcall/core"
)

type (
	Repository interface {
		CreateRoll(ctx context.Context, r Roll) (Roll, error)
		QueryAllRolls(ctx context.Context) ([]Roll, error)
		GetRollByID(ctx context.Context, id int) (Roll, error)
		// SaveOutcomes inserts the outcomes of a roll, replacing the state of students already recorded on it.
		SaveOutcomes(ctx context.Context, outcomes []Outcome) ([]Outcome, error)
		QueryRollOutcomes(ctx context.Context, rollID int) ([]Outcome, error)
	}

	Service struct {
		repo    Repository
		nowFunc func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) Create(ctx context.Context, nr NewRoll) (Roll, error) {
	completedAt := nr.CompletedAt
	if completedAt.IsZero() {
		completedAt = svc.nowFunc()
	}
	return svc.repo.CreateRoll(ctx, Roll{
		Name:        nr.Name,
		CompletedAt: completedAt.UTC(),
	})
}

func (svc *Service) QueryAll(ctx context.Context) ([]Roll, error) {
	return svc.repo.QueryAllRolls(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Roll, error) {
	return svc.repo.GetRollByID(ctx, id)
}

// AddOutcomes records the given student states on roll `rollID`.
func (svc *Service) AddOutcomes(ctx context.Context, rollID int, nos NewOutcomes) ([]Outcome, error) {
	if _, err := svc.repo.GetRollByID(ctx, rollID); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(nos.Outcomes))
	for _, no := range nos.Outcomes {
		state, err := ParseState(no.State)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "state", Error: err.Error()})
		}
		outcomes = append(outcomes, Outcome{RollID: rollID, StudentID: no.StudentID, State: state})
	}
	return svc.repo.SaveOutcomes(ctx, outcomes)
}

func (svc *Service) Outcomes(ctx context.Context, rollID int) ([]Outcome, error) {
	if _, err := svc.repo.GetRollByID(ctx, rollID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRollOutcomes(ctx, rollID)
}
