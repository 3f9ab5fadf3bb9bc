// Package di builds the dependencies shared by the API server and the admin CLI.
package di

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/attempt"
	"github.com/trezcool/soma/core/event"
	"github.com/trezcool/soma/core/exam"
	emailsvc "github.com/trezcool/soma/services/email"
	logsvc "github.com/trezcool/soma/services/logger"
	"github.com/trezcool/soma/storage/database"
	inmemdb "github.com/trezcool/soma/storage/database/inmem"
	sqlxrepos "github.com/trezcool/soma/storage/database/sqlx"
)

type (
	Repositories struct {
		Exams    exam.Repository
		Attempts attempt.Repository
		Events   event.Repository
	}

	Services struct {
		Exam    *exam.Service
		Attempt *attempt.Service
		Event   *event.Service
	}

	Container struct {
		Conf       *core.Config
		Logger     core.Logger
		Repos      Repositories
		Services   Services
		Validate   *validator.Validate
		Translator ut.Translator

		// DB is nil with the memory engine.
		DB *sqlx.DB
	}
)

// New opens the configured store and wires every service on top of it.
// When migrate is set, the postgres database is created and migrated first.
func New(ctx context.Context, conf *core.Config, logger core.Logger, migrate bool) (*Container, error) {
	repos, db, err := openRepositories(ctx, conf, migrate)
	if err != nil {
		return nil, errors.Wrap(err, "setting up database")
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "MAIL : ", log.LstdFlags), conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logsvc.New("MAIL", conf), conf)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	exam.InitValidators(validate, translator)

	return &Container{
		Conf:   conf,
		Logger: logger,
		Repos:  repos,
		Services: Services{
			Exam:    exam.NewService(repos.Exams),
			Attempt: attempt.NewService(repos.Attempts, repos.Exams, mailSvc, logger),
			Event:   event.NewService(repos.Events, logger),
		},
		Validate:   validate,
		Translator: translator,
		DB:         db,
	}, nil
}

// Close releases the database connection.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func openRepositories(ctx context.Context, conf *core.Config, migrate bool) (Repositories, *sqlx.DB, error) {
	if conf.Database.InMemory() {
		db := inmemdb.Open()
		return Repositories{
			Exams:    inmemdb.NewExamRepository(db),
			Attempts: inmemdb.NewAttemptRepository(db),
			Events:   inmemdb.NewEventRepository(db),
		}, nil, nil
	}

	if migrate {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return Repositories{}, nil, err
		}
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return Repositories{}, nil, err
	}

	if migrate {
		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return Repositories{}, nil, err
		}
	}
	return newSQLRepositories(db), db, nil
}

func newSQLRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Exams:    sqlxrepos.NewExamRepository(db),
		Attempts: sqlxrepos.NewAttemptRepository(db),
		Events:   sqlxrepos.NewEventRepository(db),
	}
}
