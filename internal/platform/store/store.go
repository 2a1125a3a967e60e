// Package store opens the document repositories selected by configuration.
package store

import (
	"context"
	"database/sql"

	"daily_judge/internal/domain/repository"
	"daily_judge/internal/domain/repository/inmem"
	"daily_judge/internal/platform/config"
	"daily_judge/internal/platform/database"

	log "github.com/sirupsen/logrus"
)

type Repositories struct {
	Users       repository.UserRepository
	Problems    repository.ProblemRepository
	Courses     repository.CourseRepository
	Stats       repository.StatRepository
	Credentials repository.CredentialRepository

	db *sql.DB
}

// Open returns PostgreSQL-backed repositories, creating the tables when
// missing, or in-memory ones when DOCUMENT_STORE=memory.
func Open(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	if cfg.DocumentStore == config.StoreMemory {
		log.WithField("from", "store").Warn("using the in-memory document store; data is lost on exit")
		return Memory(inmem.NewDB()), nil
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, db, repository.Tables); err != nil {
		database.Close(db)
		return nil, err
	}
	return &Repositories{
		Users:       repository.NewPgUserRepository(db),
		Problems:    repository.NewPgProblemRepository(db),
		Courses:     repository.NewPgCourseRepository(db),
		Stats:       repository.NewPgStatRepository(db),
		Credentials: repository.NewPgCredentialRepository(db),
		db:          db,
	}, nil
}

func Memory(db *inmem.DB) *Repositories {
	return &Repositories{
		Users:       inmem.NewUserRepository(db),
		Problems:    inmem.NewProblemRepository(db),
		Courses:     inmem.NewCourseRepository(db),
		Stats:       inmem.NewStatRepository(db),
		Credentials: inmem.NewCredentialRepository(db),
	}
}

func (r *Repositories) Close() {
	if r.db != nil {
		database.Close(r.db)
	}
}
