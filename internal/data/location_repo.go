package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
)

// LocationRepo provides database operations for customer locations.
type LocationRepo struct {
	DB *sql.DB
}

// NewLocationRepo creates a new LocationRepo instance.
func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{DB: db}
}

const locationSelect = `SELECT ` + locationColumns + ` FROM locations l`

// Create inserts a new location.
func (r *LocationRepo) Create(ctx context.Context, req *model.CreateLocationRequest) (*model.Location, error) {
	if req == nil {
		return nil, apperrors.Validation("location request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid location")
	}

	loc := &model.Location{}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO locations AS l (owner_id, latitude, longitude, address, city, state, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+locationColumns,
		req.OwnerID,
		req.Point.Lat,
		req.Point.Lng,
		strings.TrimSpace(req.Address),
		strings.TrimSpace(req.City),
		strings.TrimSpace(req.State),
		strings.TrimSpace(req.PostalCode),
	).Scan(locationTargets(loc)...)
	if err != nil {
		return nil, fmt.Errorf("create location: %w", apperrors.MapDBError(err))
	}
	return loc, nil
}

// GetByID retrieves a location by ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	loc := &model.Location{}
	err := r.DB.QueryRowContext(ctx, locationSelect+` WHERE l.id = $1`, id).Scan(locationTargets(loc)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", apperrors.MapDBError(err))
	}
	return loc, nil
}

// ListByOwner returns an owner's locations, oldest first.
func (r *LocationRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Location, error) {
	rows, err := r.DB.QueryContext(ctx, locationSelect+` WHERE l.owner_id = $1 ORDER BY l.created_at, l.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []*model.Location
	for rows.Next() {
		loc := &model.Location{}
		if err := rows.Scan(locationTargets(loc)...); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}
