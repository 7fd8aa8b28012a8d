package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planora/scheduler/internal/pkg/apperrors"
)

// ErrNotFound is the shared not-found error for all repositories.
var ErrNotFound = apperrors.ErrResourceNotFound

// Repositories is a container for all repositories
type Repositories struct {
	CollectionRepository *CollectionRepository
	TimetableRepository  *TimetableRepository
}

// NewRepositories creates a new Repositories container
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		CollectionRepository: NewCollectionRepository(db),
		TimetableRepository:  NewTimetableRepository(db),
	}
}
