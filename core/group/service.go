package group

import (
	"context"
	"fmt"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/rollcall/core"
)

const (
	// RunLockName is the name of the lock held during a filter run.
	RunLockName = "filters:run"

	runSuccessMessage = "Filters run successfully."
)

var reportTemplate = texttmpl.Must(texttmpl.New("report").Parse(
	`Filter run started at {{ .StartedAt.Format "2006-01-02 15:04:05 MST" }} finished at {{ .FinishedAt.Format "2006-01-02 15:04:05 MST" }}.

Groups updated: {{ .Groups }}
{{- if .Failed }}
Groups failed: {{ len .Failed }}
{{ range .Failed }}
  - #{{ .GroupID }} {{ .GroupName }}: {{ .Error }}
{{- end }}
{{- end }}
`))

type (
	Repository interface {
		MembershipWriter

		CreateGroup(ctx context.Context, g Group) (Group, error)
		QueryAllGroups(ctx context.Context, ordering []core.DBOrdering) ([]Group, error)
		GetGroupByID(ctx context.Context, id int) (Group, error)
		// UpdateGroup saves g's rule fields; the run metadata is left as is.
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		// DeleteGroup removes a group along with its memberships.
		DeleteGroup(ctx context.Context, id int) error
		QueryGroupStudents(ctx context.Context, groupID int) ([]GroupStudent, error)
		DeleteAllMemberships(ctx context.Context) error
	}

	// Locker hands out named, non-blocking locks.
	// TryLock fails with core.ErrRunInProgress when the lock is already held.
	Locker interface {
		TryLock(ctx context.Context, name string) (unlock func(), err error)
	}

	Options struct {
		// FailFast aborts a filter run on the first failing group instead of skipping it.
		FailFast bool
		// ReportRecipients receive an email summary after each filter run.
		ReportRecipients []mail.Address
	}

	Service struct {
		repo         Repository
		evaluator    *Evaluator
		materializer *Materializer
		locker       Locker
		mailSvc      core.EmailService
		logger       core.Logger
		opts         Options
		nowFunc      func() time.Time
	}
)

func NewService(
	repo Repository,
	counter IncidentCounter,
	locker Locker,
	mailSvc core.EmailService,
	logger core.Logger,
	opts Options,
) *Service {
	return &Service{
		repo:         repo,
		evaluator:    NewEvaluator(counter),
		materializer: NewMaterializer(repo),
		locker:       locker,
		mailSvc:      mailSvc,
		logger:       logger,
		opts:         opts,
		nowFunc:      time.Now,
	}
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	cmp, err := ParseComparator(ng.Ltmt)
	if err != nil {
		return Group{}, core.NewValidationError(err, core.FieldError{Field: "ltmt", Error: ltmtText})
	}
	return svc.repo.CreateGroup(ctx, Group{
		Name:          ng.Name,
		NumberOfWeeks: ng.NumberOfWeeks,
		RollStates:    ng.RollStates,
		Incidents:     ng.Incidents,
		Ltmt:          cmp,
	})
}

func (svc *Service) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Group, error) {
	return svc.repo.QueryAllGroups(ctx, CleanOrdering(ordering))
}

func (svc *Service) GetByID(ctx context.Context, id int) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

// Update replaces the rule fields of group `ug.ID`.
func (svc *Service) Update(ctx context.Context, ug UpdateGroup) (Group, error) {
	g, err := svc.repo.GetGroupByID(ctx, ug.ID)
	if err != nil {
		return Group{}, err
	}
	cmp, err := ParseComparator(ug.Ltmt)
	if err != nil {
		return Group{}, core.NewValidationError(err, core.FieldError{Field: "ltmt", Error: ltmtText})
	}

	g.Name = ug.Name
	g.NumberOfWeeks = ug.NumberOfWeeks
	g.RollStates = ug.RollStates
	g.Incidents = ug.Incidents
	g.Ltmt = cmp
	return svc.repo.UpdateGroup(ctx, g)
}

// Delete removes a group and its memberships, returning the removed group.
func (svc *Service) Delete(ctx context.Context, id int) (Group, error) {
	g, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if err = svc.repo.DeleteGroup(ctx, id); err != nil {
		return Group{}, err
	}
	return g, nil
}

// QueryStudents lists the current members of group `groupID`.
func (svc *Service) QueryStudents(ctx context.Context, groupID int) ([]GroupStudent, error) {
	if _, err := svc.repo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGroupStudents(ctx, groupID)
}

// RunFilters recomputes the membership of every group.
//
// All memberships are cleared first, then each group is evaluated and materialized in turn.
// A failing group is skipped and reported in RunSummary.Failed, unless Options.FailFast is set,
// in which case the run stops there: groups not processed yet keep no members and stale run metadata.
func (svc *Service) RunFilters(ctx context.Context) (RunSummary, error) {
	unlock, err := svc.locker.TryLock(ctx, RunLockName)
	if err != nil {
		if errors.Is(err, core.ErrRunInProgress) {
			filterRunsTotal.WithLabelValues("locked").Inc()
		}
		return RunSummary{}, err
	}
	defer unlock()

	timer := prometheus.NewTimer(filterRunDuration)
	defer timer.ObserveDuration()

	summary, err := svc.runFilters(ctx)
	if err != nil {
		filterRunsTotal.WithLabelValues("error").Inc()
		return summary, err
	}
	if len(summary.Failed) > 0 {
		filterRunsTotal.WithLabelValues("partial").Inc()
	} else {
		filterRunsTotal.WithLabelValues("ok").Inc()
	}

	svc.sendReport(summary)
	return summary, nil
}

func (svc *Service) runFilters(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{StartedAt: svc.nowFunc().UTC()}

	if err := svc.repo.DeleteAllMemberships(ctx); err != nil {
		return summary, core.NewPersistenceError("clearing group memberships", err)
	}

	groups, err := svc.repo.QueryAllGroups(ctx, nil)
	if err != nil {
		return summary, core.NewPersistenceError("querying groups", err)
	}

	for _, g := range groups {
		if err = ctx.Err(); err != nil {
			return summary, errors.Wrap(err, "running filters")
		}

		if err = svc.runGroup(ctx, g); err != nil {
			groupEvaluationsTotal.WithLabelValues("error").Inc()
			if svc.opts.FailFast {
				return summary, errors.Wrapf(err, "running filter of group %d", g.ID)
			}
			svc.logger.Error(fmt.Sprintf("running filter of group %d: %v", g.ID, err), err)
			summary.Failed = append(summary.Failed, RunError{GroupID: g.ID, GroupName: g.Name, Error: err.Error()})
			continue
		}
		groupEvaluationsTotal.WithLabelValues("ok").Inc()
		summary.Groups++
	}

	summary.Message = runSuccessMessage
	summary.FinishedAt = svc.nowFunc().UTC()
	return summary, nil
}

func (svc *Service) runGroup(ctx context.Context, g Group) error {
	now := svc.nowFunc()
	incidents, err := svc.evaluator.Evaluate(ctx, g, now)
	if err != nil {
		return err
	}
	_, err = svc.materializer.Materialize(ctx, g, incidents, now)
	return err
}

func (svc *Service) sendReport(summary RunSummary) {
	if svc.mailSvc == nil || len(svc.opts.ReportRecipients) == 0 {
		return
	}
	subject := "Filter run report"
	if len(summary.Failed) > 0 {
		subject += fmt.Sprintf(" (%d failed)", len(summary.Failed))
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           svc.opts.ReportRecipients,
		Subject:      subject,
		Template:     reportTemplate,
		TemplateData: summary,
	})
}
