// Package container builds the dependencies shared by the API and admin binaries.
package container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/core/roll"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/services/email"
	"github.com/trezcool/rollcall/services/lock"
	"github.com/trezcool/rollcall/services/logger"
	"github.com/trezcool/rollcall/storage/database"
	"github.com/trezcool/rollcall/storage/database/inmem"
	"github.com/trezcool/rollcall/storage/database/sqlx"
)

const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
)

type (
	repositories struct {
		group   group.Repository
		counter group.IncidentCounter
		student student.Repository
		roll    roll.Repository
	}

	Container struct {
		Conf       *core.Config
		Logger     core.Logger
		DBLogger   core.Logger
		DB         *sqlx.DB // nil with the memory engine
		Locker     group.Locker
		MailSvc    core.EmailService
		Validate   *validator.Validate
		Translator ut.Translator

		GroupSvc   *group.Service
		StudentSvc *student.Service
		RollSvc    *roll.Service

		redis *redis.Client
	}
)

func NewLogger(conf *core.Config, prefix string) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// New wires every dependency. migrate controls whether the postgres database is created and migrated.
func New(ctx context.Context, conf *core.Config, logger core.Logger, migrate bool) (*Container, error) {
	c := &Container{
		Conf:       conf,
		Logger:     logger,
		DBLogger:   NewLogger(conf, "DB"),
		Validate:   validator.New(),
		Translator: core.NewTranslator(),
	}

	core.InitValidators(c.Validate, c.Translator)
	group.InitValidators(c.Validate, c.Translator)
	roll.InitValidators(c.Validate, c.Translator)

	repos, err := c.newRepositories(ctx, migrate)
	if err != nil {
		return nil, errors.Wrap(err, "setting up database")
	}

	if c.Locker, err = c.newLocker(ctx); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "setting up locks")
	}
	c.MailSvc = c.newEmailService()

	c.StudentSvc = student.NewService(repos.student)
	c.RollSvc = roll.NewService(repos.roll)
	c.GroupSvc = group.NewService(repos.group, repos.counter, c.Locker, c.MailSvc, logger, group.Options{
		FailFast:         conf.Filters.FailFast,
		ReportRecipients: conf.ReportRecipients(),
	})

	if conf.Database.SeedStudents {
		n, err := c.StudentSvc.SeedDefaults(ctx)
		if err != nil {
			c.Close()
			return nil, errors.Wrap(err, "seeding students")
		}
		if n > 0 {
			logger.Info(fmt.Sprintf("seeded %d students", n))
		}
	}
	return c, nil
}

func (c *Container) newRepositories(ctx context.Context, migrate bool) (repositories, error) {
	switch c.Conf.Database.Engine {
	case EngineMemory:
		db := inmemdb.Open()
		groupRepo := inmemdb.NewGroupRepository(db)
		return repositories{
			group:   groupRepo,
			counter: groupRepo,
			student: inmemdb.NewStudentRepository(db),
			roll:    inmemdb.NewRollRepository(db),
		}, nil

	case EnginePostgres:
		if migrate {
			if err := database.CreateIfNotExist(ctx, c.Conf); err != nil {
				return repositories{}, err
			}
		}
		db, err := database.Open(ctx, c.Conf)
		if err != nil {
			return repositories{}, err
		}
		if migrate {
			if err = database.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return repositories{}, err
			}
		}
		c.DB = db

		groupRepo := sqlxrepos.NewGroupRepository(db)
		return repositories{
			group:   groupRepo,
			counter: groupRepo,
			student: sqlxrepos.NewStudentRepository(db),
			roll:    sqlxrepos.NewRollRepository(db),
		}, nil
	}
	return repositories{}, errors.Errorf("unknown database engine %q", c.Conf.Database.Engine)
}

// newLocker returns Redis locks when a Redis URL is configured, in-process locks otherwise.
func (c *Container) newLocker(ctx context.Context) (group.Locker, error) {
	if c.Conf.Redis.URL == "" {
		return lock.NewLocal(), nil
	}
	client, err := lock.Dial(ctx, c.Conf.Redis.URL)
	if err != nil {
		return nil, err
	}
	c.redis = client
	return lock.NewRedis(client, c.Conf.Redis.LockTTL, c.Logger), nil
}

func (c *Container) newEmailService() core.EmailService {
	if c.Conf.Debug || c.Conf.Email.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(log.New(os.Stdout, "EMAIL : ", log.LstdFlags), c.Logger, c.Conf)
	}
	return emailsvc.NewSendgridService(c.Logger, c.Conf)
}

// Close releases the database and Redis connections.
func (c *Container) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.DBLogger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Error(fmt.Sprintf("closing redis: %v", err), err)
		}
	}
}
