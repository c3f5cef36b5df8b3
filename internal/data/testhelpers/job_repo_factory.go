// Package testhelpers builds data-layer repositories for tests in other packages.
package testhelpers

import (
	"database/sql"

	"github.com/target/jobmatch/internal/data"
)

// NewJobRepoWithTimeProvider creates a JobRepo with the provided TimeProvider for tests.
func NewJobRepoWithTimeProvider(db *sql.DB, cfg data.RepoConfig, tp data.TimeProvider) *data.JobRepo {
	cfg.TimeProvider = tp
	return data.NewJobRepo(db, cfg)
}

// Repos bundles every repository a service test needs against one database.
type Repos struct {
	Jobs      *data.JobRepo
	Locations *data.LocationRepo
	Workers   *data.WorkerRepo
}

// NewRepos wires the repositories against db with a shared clock.
func NewRepos(db *sql.DB, tp data.TimeProvider) Repos {
	return Repos{
		Jobs:      NewJobRepoWithTimeProvider(db, data.RepoConfig{}, tp),
		Locations: data.NewLocationRepo(db),
		Workers:   data.NewWorkerRepo(db),
	}
}
